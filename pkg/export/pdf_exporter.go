package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Section pairs a heading with a table for the PDF report.
type Section struct {
	Title string
	Data  Dataset
}

// BarChart describes an optional drawn chart appended to the report.
type BarChart struct {
	Title  string
	Labels []string
	Values []float64
}

// PDFExporter renders a multi-section analysis report.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with a title, one table per section and an
// optional bar chart at the end.
func (e *PDFExporter) Render(title string, sections []Section, chart *BarChart) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("pdf requires at least one section")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	for _, section := range sections {
		if err := e.renderSection(pdf, section); err != nil {
			return nil, err
		}
	}

	if chart != nil && len(chart.Labels) > 0 {
		e.renderChart(pdf, chart)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) renderSection(pdf *gofpdf.Fpdf, section Section) error {
	if len(section.Data.Headers) == 0 {
		return fmt.Errorf("section %q requires at least one header", section.Title)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 9, section.Title, "", 1, "L", false, 0, "")
	pdf.Ln(1)

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(section.Data.Headers))
	for _, header := range section.Data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range section.Data.Rows {
		for _, header := range section.Data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
	return nil
}

// renderChart draws a simple bar chart with gofpdf primitives.
func (e *PDFExporter) renderChart(pdf *gofpdf.Fpdf, chart *BarChart) {
	const (
		chartWidth  = 180.0
		chartHeight = 70.0
		originX     = 15.0
	)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 9, chart.Title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	maxValue := 0.0
	for _, v := range chart.Values {
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue == 0 {
		maxValue = 1
	}

	baseY := pdf.GetY() + chartHeight
	slot := chartWidth / float64(len(chart.Labels))
	barWidth := slot * 0.6

	pdf.SetFillColor(66, 120, 181)
	pdf.SetFont("Arial", "", 8)
	for i, label := range chart.Labels {
		barHeight := (chart.Values[i] / maxValue) * (chartHeight - 10)
		barX := originX + float64(i)*slot + (slot-barWidth)/2
		pdf.Rect(barX, baseY-barHeight, barWidth, barHeight, "F")
		pdf.SetXY(barX-slot*0.2, baseY-barHeight-5)
		pdf.CellFormat(slot, 4, fmt.Sprintf("%.1f", chart.Values[i]), "", 0, "C", false, 0, "")
		pdf.SetXY(barX-slot*0.2, baseY+1)
		pdf.CellFormat(slot, 4, label, "", 0, "C", false, 0, "")
	}
	pdf.SetY(baseY + 8)
}
