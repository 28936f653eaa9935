package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-scheduler-api/api/swagger"
	"github.com/noah-isme/sma-scheduler-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-scheduler-api/internal/middleware"
	"github.com/noah-isme/sma-scheduler-api/internal/repository"
	"github.com/noah-isme/sma-scheduler-api/internal/scheduler"
	"github.com/noah-isme/sma-scheduler-api/internal/service"
	"github.com/noah-isme/sma-scheduler-api/pkg/cache"
	"github.com/noah-isme/sma-scheduler-api/pkg/config"
	"github.com/noah-isme/sma-scheduler-api/pkg/database"
	"github.com/noah-isme/sma-scheduler-api/pkg/events"
	"github.com/noah-isme/sma-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-scheduler-api/pkg/middleware/requestid"
)

// @title Class Scheduler API
// @version 1.0.0
// @description Weekly class-session timetabling for sections and year levels.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, schedule cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		amqpPublisher, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Queue, cfg.Events.Timeout, logr)
		if err != nil {
			logr.Warn("amqp unavailable, timetable events disabled", zap.Error(err))
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close() //nolint:errcheck

	grid, err := scheduler.NewGrid(scheduler.GridConfig{
		DayStart:    cfg.Scheduler.DayStart,
		SlotMinutes: cfg.Scheduler.SlotMinutes,
		SlotCount:   cfg.Scheduler.SlotCount,
		Days:        cfg.Scheduler.Days,
	})
	if err != nil {
		logr.Fatal("invalid scheduler grid", zap.Error(err))
	}
	engine := scheduler.NewEngine(grid, logr)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	slotRepo := repository.NewTimetableSlotRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.CacheTTL, logr, redisClient != nil)
	sectionSvc := service.NewSectionService(sectionRepo, cacheSvc, validate, logr)
	courseSvc, err := service.NewCourseService(courseRepo, sectionRepo, db, cacheSvc, grid, validate, logr)
	if err != nil {
		logr.Fatal("failed to build course service", zap.Error(err))
	}
	generatorSvc := service.NewScheduleGeneratorService(engine, courseRepo, sectionRepo, timetableRepo, slotRepo, db, cacheSvc, publisher, metricsSvc, validate, logr, service.ScheduleGeneratorConfig{
		ProposalTTL: cfg.Scheduler.ProposalTTL,
	})
	bulkSvc := service.NewBulkService(generatorSvc, sectionSvc, metricsSvc, validate, logr, service.BulkConfig{
		Workers:    cfg.Scheduler.BulkWorkers,
		Retries:    cfg.Scheduler.BulkRetries,
		RetryDelay: cfg.Scheduler.BulkRetryDelay,
	})
	bulkSvc.Start(ctx)
	defer bulkSvc.Stop()

	tokenSvc := service.NewTokenService(cfg.JWT)

	courseHandler := handler.NewCourseHandler(courseSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	scheduleHandler := handler.NewScheduleGeneratorHandler(generatorSvc, bulkSvc)
	timetableHandler := handler.NewTimetableHandler(generatorSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokenSvc), internalmiddleware.WithResponseMeta())
	editors := internalmiddleware.RequireRoles(internalmiddleware.Editors...)

	api.GET("/sections", sectionHandler.List)
	api.POST("/sections", editors, sectionHandler.Create)

	api.GET("/courses", courseHandler.List)
	api.GET("/courses/:id", courseHandler.Get)
	api.POST("/courses", editors, courseHandler.Create)
	api.POST("/courses/import", editors, courseHandler.Import)
	api.PUT("/courses/:id", editors, courseHandler.Update)
	api.DELETE("/courses/:id", editors, courseHandler.Delete)

	schedules := api.Group("/schedules", editors)
	schedules.POST("/sections/:section/generate", scheduleHandler.GenerateSection)
	schedules.POST("/year-levels/:yearLevel/generate", scheduleHandler.GenerateYearLevel)
	schedules.POST("/save", scheduleHandler.Save)
	schedules.POST("/bulk", scheduleHandler.Bulk)
	schedules.GET("/bulk/:id", scheduleHandler.BulkStatus)

	api.GET("/timetables", timetableHandler.List)
	api.GET("/timetables/:id/slots", timetableHandler.Slots)
	api.GET("/timetables/:id/export", timetableHandler.Export)
	api.POST("/timetables/:id/publish", editors, timetableHandler.Publish)
	api.DELETE("/timetables/:id", editors, timetableHandler.Delete)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
