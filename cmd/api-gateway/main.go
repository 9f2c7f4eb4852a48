package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/learning-path-api/api/swagger"
	"github.com/noah-isme/learning-path-api/internal/handler"
	"github.com/noah-isme/learning-path-api/internal/middleware"
	"github.com/noah-isme/learning-path-api/internal/parser"
	"github.com/noah-isme/learning-path-api/internal/repository"
	"github.com/noah-isme/learning-path-api/internal/service"
	"github.com/noah-isme/learning-path-api/pkg/cache"
	"github.com/noah-isme/learning-path-api/pkg/charts"
	"github.com/noah-isme/learning-path-api/pkg/config"
	"github.com/noah-isme/learning-path-api/pkg/jobs"
	"github.com/noah-isme/learning-path-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/learning-path-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/learning-path-api/pkg/middleware/requestid"
	"github.com/noah-isme/learning-path-api/pkg/storage"
)

// @title Learning Path API
// @version 0.1.0
// @description Learning activity log analysis service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	if cfg.Analysis.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, analysis cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Analysis.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	datasetRepo := repository.NewDatasetRepository()
	logParser := parser.New(logr)
	chartRenderer := charts.NewRenderer(cfg.Charts.Width, cfg.Charts.Height)

	analysisSvc := service.NewAnalysisService(datasetRepo, logParser, chartRenderer, cacheSvc, metricsSvc, logr, service.AnalysisConfig{
		CacheTTL:    cfg.Analysis.CacheTTL,
		TopStudents: cfg.Analysis.TopStudents,
	})

	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		OperatorEmail:        cfg.Auth.OperatorEmail,
		OperatorPasswordHash: cfg.Auth.OperatorPasswordHash,
		TokenSecret:          cfg.JWT.Secret,
		TokenExpiry:          cfg.JWT.Expiration,
		Issuer:               cfg.JWT.Issuer,
	})

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportRepo := repository.NewReportRepository()
		exportSvc := service.NewExportService(datasetRepo, fileStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)

		reportSvc = service.NewReportService(reportRepo, datasetRepo, reportQueue, exportSvc, validate, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	datasetHandler := handler.NewDatasetHandler(analysisSvc, cfg.Uploads.MaxFileSizeBytes)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.POST("/datasets", datasetHandler.Upload)
	protected.GET("/datasets", datasetHandler.List)
	protected.GET("/datasets/:id", datasetHandler.Get)
	protected.GET("/datasets/:id/analysis", datasetHandler.Analysis)
	protected.GET("/datasets/:id/charts/:name", datasetHandler.Chart)
	protected.DELETE("/datasets/:id", datasetHandler.Delete)
	protected.GET("/system/metrics", metricsHandler.Snapshot)

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		protected.POST("/reports/generate", reportHandler.Generate)
		protected.GET("/reports/status/:id", reportHandler.Status)
		// Download is token-authenticated, not JWT-authenticated.
		api.GET("/export/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}
