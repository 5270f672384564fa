package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nsu-tools/course-scheduler-api/api/swagger"
	"github.com/nsu-tools/course-scheduler-api/internal/engine"
	"github.com/nsu-tools/course-scheduler-api/internal/handler"
	"github.com/nsu-tools/course-scheduler-api/internal/middleware"
	"github.com/nsu-tools/course-scheduler-api/internal/models"
	"github.com/nsu-tools/course-scheduler-api/internal/repository"
	"github.com/nsu-tools/course-scheduler-api/internal/scraper"
	"github.com/nsu-tools/course-scheduler-api/internal/service"
	"github.com/nsu-tools/course-scheduler-api/pkg/cache"
	"github.com/nsu-tools/course-scheduler-api/pkg/config"
	"github.com/nsu-tools/course-scheduler-api/pkg/database"
	"github.com/nsu-tools/course-scheduler-api/pkg/jobs"
	"github.com/nsu-tools/course-scheduler-api/pkg/logger"
	corsmiddleware "github.com/nsu-tools/course-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nsu-tools/course-scheduler-api/pkg/middleware/requestid"
	"github.com/nsu-tools/course-scheduler-api/pkg/storage"
)

// @title Course Scheduler API
// @version 0.1.0
// @description Constraint-based course schedule generator over the NSU offered-courses catalog
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var resultCache service.ResultCache
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, result caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		resultCache = redisClient
	}

	metricsSvc := service.NewMetricsService()
	catalogSvc := service.NewCatalogService(scraper.NewClient(cfg.Scraper, logr), metricsSvc, logr)

	weights := engine.ScoreWeights{
		IdealDays:           cfg.Scoring.IdealDays,
		IdealDayBonus:       cfg.Scoring.IdealDayBonus,
		AcceptableDays:      cfg.Scoring.AcceptableDays,
		AcceptableDayBonus:  cfg.Scoring.AcceptableDayBonus,
		LabMorningThreshold: mustClock(cfg.Scoring.LabMorningThreshold),
	}

	scheduleSvc := service.NewScheduleService(
		catalogSvc,
		repository.NewRunRepository(db),
		resultCache,
		metricsSvc,
		cfg.Scheduler,
		weights,
		logr,
	)
	archive, err := storage.NewArchive(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export archive", "error", err)
	}
	exportSvc := service.NewExportService(scheduleSvc, archive, cfg.Export.Retention, cfg.Export.Enabled, logr)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, exportSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	// The refresh cycle scrapes the catalog, regenerates the default run and
	// primes the result cache, all off the request path.
	refreshQueue := jobs.NewQueue("catalog-refresh", func(ctx context.Context, job jobs.Job) error {
		if err := catalogSvc.Refresh(ctx); err != nil {
			return err
		}
		_, err := scheduleSvc.GenerateDefault(ctx)
		return err
	}, jobs.QueueConfig{Workers: 1, Logger: logr})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()

	if err := refreshQueue.Enqueue(jobs.Job{ID: "bootstrap", Type: "refresh"}); err != nil {
		logr.Sugar().Warnw("failed to enqueue bootstrap refresh", "error", err)
	}
	refreshQueue.EnqueueEvery(cfg.Scheduler.RefreshInterval, jobs.Job{Type: "refresh"})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if catalogSvc.Snapshot() == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "waiting for catalog"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/schedules", scheduleHandler.Latest)
		api.POST("/schedules/generate", scheduleHandler.Generate)
		api.GET("/schedules/export", scheduleHandler.Export)
		api.GET("/status", scheduleHandler.Status)
		api.GET("/catalog", catalogHandler.List)
		api.POST("/catalog/refresh", catalogHandler.Refresh)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func mustClock(raw string) models.ClockTime {
	t, err := models.ParseClock(raw)
	if err != nil {
		log.Fatalf("invalid clock value %q: %v", raw, err)
	}
	return t
}
