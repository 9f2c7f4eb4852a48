package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/noah-isme/learning-path-api/internal/analyzer"
	"github.com/noah-isme/learning-path-api/internal/parser"
	"github.com/noah-isme/learning-path-api/pkg/charts"
)

const resultsFilename = "results.json"

func main() {
	input := flag.String("input", "", "path to the CSV activity log (required)")
	output := flag.String("output", "output", "directory for results.json and charts")
	topStudents := flag.Int("top", 5, "number of students in the top ranking")
	renderCharts := flag.Bool("charts", true, "render PNG charts alongside results.json")
	chartWidth := flag.Int("chart-width", 1200, "chart width in pixels")
	chartHeight := flag.Int("chart-height", 800, "chart height in pixels")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: analyzer --input activity_log.csv [--output dir]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logr := newLogger(*verbose)
	defer logr.Sync() //nolint:errcheck

	if err := run(*input, *output, *topStudents, *renderCharts, *chartWidth, *chartHeight, logr); err != nil {
		logr.Fatal("analysis failed", zap.Error(err))
	}
}

func run(input, output string, topStudents int, renderCharts bool, chartWidth, chartHeight int, logr *zap.Logger) error {
	file, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	table, err := parser.New(logr).Parse(file)
	if err != nil {
		return err
	}

	result, err := analyzer.New(table, topStudents).AnalyzeAll(context.Background())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	resultsPath := filepath.Join(output, resultsFilename)
	if err := os.WriteFile(resultsPath, payload, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	logr.Info("results written", zap.String("path", resultsPath))

	if !renderCharts {
		return nil
	}

	renderer := charts.NewRenderer(chartWidth, chartHeight)
	for _, name := range charts.Names {
		png, err := renderer.Render(name, result)
		if err != nil {
			logr.Warn("chart skipped", zap.String("chart", name), zap.Error(err))
			continue
		}
		chartPath := filepath.Join(output, name+".png")
		if err := os.WriteFile(chartPath, png, 0o644); err != nil {
			return fmt.Errorf("write chart %s: %w", name, err)
		}
		logr.Info("chart written", zap.String("path", chartPath))
	}
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logr, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logr
}
