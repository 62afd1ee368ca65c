package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/HF-CYGG/Dawn-Course-sub000/api/swagger"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/handler"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/middleware"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/repository"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/service"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/cache"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/config"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/database"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/jobs"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/logger"
	corsmiddleware "github.com/HF-CYGG/Dawn-Course-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/HF-CYGG/Dawn-Course-sub000/pkg/middleware/requestid"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description Course occurrences, week rendering, partial-week rescheduling and undo
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without cache", zap.Error(err))
		redisClient = nil
	}

	grid, err := config.LoadSectionGrid(cfg.Timetable.GridFile)
	if err != nil {
		logr.Fatal("invalid section grid", zap.String("path", cfg.Timetable.GridFile), zap.Error(err))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	occurrenceRepo := repository.NewOccurrenceRepository(db).WithMetrics(metricsSvc)
	originRepo := repository.NewLineageOriginRepository(db)
	termRepo := repository.NewTermRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.CacheTTL, logr, cfg.Timetable.CacheEnabled && redisClient != nil)
	invalidations := jobs.NewQueue("cache-invalidation", cacheSvc.HandleInvalidationJob, jobs.QueueConfig{
		Workers:    cfg.Timetable.InvalidationWorkers,
		MaxRetries: cfg.Timetable.InvalidationRetries,
		RetryDelay: cfg.Timetable.InvalidationDelay,
		Logger:     logr,
	})
	invalidations.Start(ctx)
	defer invalidations.Stop()
	cacheSvc.WithRetryQueue(invalidations)

	termSvc := service.NewTermService(termRepo, validate, logr)
	occurrenceSvc := service.NewOccurrenceService(occurrenceRepo, termRepo, occurrenceRepo, cacheSvc, metricsSvc, validate, logr)
	rescheduleSvc := service.NewRescheduleService(occurrenceRepo, originRepo, termRepo, occurrenceRepo, cacheSvc, metricsSvc, validate, logr)
	timetableSvc := service.NewTimetableService(occurrenceRepo, termRepo, cacheSvc, service.TimetableConfig{
		HideNonCurrent: cfg.Timetable.HideNonCurrent,
		CacheTTL:       cfg.Timetable.CacheTTL,
	}, logr)
	scheduler := cron.New()
	exportSvc := service.NewExportService(timetableSvc, termRepo, grid, service.DefaultRenderers(cfg.Timetable.ExportSheetName), logr)
	if cfg.Timetable.ExportSecret != "" {
		documents, err := storage.NewLocalStorage(cfg.Timetable.ExportDir)
		if err != nil {
			logr.Fatal("failed to prepare export directory", zap.String("path", cfg.Timetable.ExportDir), zap.Error(err))
		}
		exportSvc.WithArchive(documents, storage.NewLinkSigner(cfg.Timetable.ExportSecret, cfg.Timetable.ExportLinkTTL), cfg.APIPrefix)
		if err := schedulePurge(scheduler, cfg.Timetable.ExportPurgeSchedule, exportSvc, cfg.Timetable.ExportRetention, logr); err != nil {
			logr.Fatal("invalid export purge schedule", zap.String("schedule", cfg.Timetable.ExportPurgeSchedule), zap.Error(err))
		}
	} else {
		logr.Info("saved exports disabled, TIMETABLE_EXPORT_SECRET is empty")
	}
	scheduler.Start()
	durationSvc := service.NewDurationService(occurrenceRepo, termRepo, occurrenceRepo, cacheSvc, validate, logr)

	dependencies := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		dependencies["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	termHandler := handler.NewTermHandler(termSvc)
	occurrenceHandler := handler.NewOccurrenceHandler(occurrenceSvc)
	rescheduleHandler := handler.NewRescheduleHandler(rescheduleSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc, durationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, dependencies)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	registerRoutes(api, termHandler, occurrenceHandler, rescheduleHandler, timetableHandler, metricsHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cache", cacheSvc.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	<-scheduler.Stop().Done()
	if redisClient != nil {
		closeRedis(redisClient, logr)
	}
}

func registerRoutes(api *gin.RouterGroup, terms *handler.TermHandler, occurrences *handler.OccurrenceHandler, reschedules *handler.RescheduleHandler, timetable *handler.TimetableHandler, metrics *handler.MetricsHandler) {
	api.GET("/terms", terms.List)
	api.POST("/terms", terms.Create)
	api.GET("/terms/:id", terms.Get)
	api.DELETE("/terms/:id", terms.Delete)
	api.GET("/terms/:id/occurrences", occurrences.ListByTerm)
	api.GET("/terms/:id/timetable", timetable.WeekGrid)
	api.GET("/terms/:id/timetable/export", timetable.Export)
	api.POST("/terms/:id/timetable/exports", timetable.SaveExport)
	api.GET("/exports/:token", timetable.Download)
	api.PUT("/terms/:id/durations", timetable.Durations)

	api.POST("/occurrences", occurrences.Create)
	api.GET("/occurrences/:id", occurrences.Get)
	api.PUT("/occurrences/:id", occurrences.Update)
	api.DELETE("/occurrences/:id", occurrences.Delete)
	api.POST("/occurrences/:id/reschedule/preview", reschedules.Preview)
	api.POST("/occurrences/:id/reschedule", reschedules.Commit)
	api.POST("/occurrences/conflicts", occurrences.CheckConflicts)

	api.GET("/lineages/:id", reschedules.Lineage)
	api.POST("/lineages/:id/undo", reschedules.Undo)

	api.GET("/metrics/summary", metrics.Summary)
}

// schedulePurge registers the saved-export purge on scheduler.
func schedulePurge(scheduler *cron.Cron, spec string, exports *service.ExportService, retention time.Duration, logr *zap.Logger) error {
	_, err := scheduler.AddFunc(spec, func() {
		if _, err := exports.PurgeSaved(retention); err != nil {
			logr.Warn("saved export purge failed", zap.Error(err))
		}
	})
	return err
}

func closeRedis(client *redis.Client, logr *zap.Logger) {
	if err := client.Close(); err != nil {
		logr.Warn("redis close failed", zap.Error(err))
	}
}
