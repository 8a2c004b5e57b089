package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/arashi-labs/weft-scheduler/api/swagger"
	"github.com/arashi-labs/weft-scheduler/internal/handler"
	"github.com/arashi-labs/weft-scheduler/internal/middleware"
	"github.com/arashi-labs/weft-scheduler/internal/repository"
	"github.com/arashi-labs/weft-scheduler/internal/scheduler"
	"github.com/arashi-labs/weft-scheduler/internal/service"
	"github.com/arashi-labs/weft-scheduler/pkg/cache"
	"github.com/arashi-labs/weft-scheduler/pkg/config"
	"github.com/arashi-labs/weft-scheduler/pkg/database"
	"github.com/arashi-labs/weft-scheduler/pkg/logger"
	corsmiddleware "github.com/arashi-labs/weft-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/arashi-labs/weft-scheduler/pkg/middleware/requestid"
)

// @title Weft Scheduler API
// @version 0.1.0
// @description Genetic-algorithm timetable scheduler service.
// @BasePath /
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

	metricsSvc := service.NewMetricsService()
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	var redisClient interface{ Close() error }
	redisConn, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("ga result cache disabled, redis unavailable", "error", err)
	} else {
		redisClient = redisConn
	}
	// NewCacheRepository accepts a nil client and degrades every operation to
	// a no-op/miss, so callers never need to special-case a disabled cache.
	cacheRepo := repository.NewCacheRepository(redisConn, logr)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	termRepo := repository.NewTermRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	preferenceRepo := repository.NewTeacherPreferenceRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)
	semesterScheduleRepo := repository.NewSemesterScheduleRepository(db)
	semesterSlotRepo := repository.NewSemesterScheduleSlotRepository(db)

	assignmentSvc := service.NewTeacherAssignmentService(
		teacherRepo,
		classRepo,
		subjectRepo,
		termRepo,
		assignmentRepo,
		scheduleRepo,
		preferenceRepo,
		nil,
		logr,
	)
	assignmentHandler := handler.NewTeacherAssignmentHandler(assignmentSvc)

	preferenceSvc := service.NewTeacherPreferenceService(teacherRepo, preferenceRepo, nil, logr)
	schedulePreferenceHandler := handler.NewSchedulePreferenceHandler(preferenceSvc)

	var schedulerHandler *handler.ScheduleGeneratorHandler
	var schedulerSvc *service.ScheduleGeneratorService
	if cfg.Scheduler.Enabled {
		defaultParams := scheduler.DefaultParams()
		defaultParams.PopulationSize = cfg.GA.PopulationSize
		defaultParams.Generations = cfg.GA.Generations
		defaultParams.TournamentK = cfg.GA.TournamentK
		defaultParams.CrossoverRate = cfg.GA.CrossoverRate
		defaultParams.MutationRate = cfg.GA.MutationRate
		defaultParams.ElitismFraction = cfg.GA.ElitismFraction
		defaultParams.Workers = cfg.GA.Workers
		if cfg.GA.UseSeed {
			seed := cfg.GA.Seed
			defaultParams.Seed = &seed
		}
		if cfg.GA.WallClockBudgetMs > 0 {
			budget := cfg.GA.WallClockBudgetMs
			defaultParams.WallClockBudgetMs = &budget
		}

		schedulerSvc = service.NewScheduleGeneratorService(
			termRepo,
			classRepo,
			subjectRepo,
			assignmentRepo,
			teacherRepo,
			preferenceRepo,
			roomRepo,
			timeSlotRepo,
			scheduleRepo,
			semesterScheduleRepo,
			semesterSlotRepo,
			db,
			nil,
			logr,
			metricsSvc,
			cacheRepo,
			service.ScheduleGeneratorConfig{
				ProposalTTL:   cfg.Scheduler.ProposalTTL,
				CacheTTL:      cfg.Scheduler.CacheTTL,
				DefaultParams: &defaultParams,
			},
		)
		schedulerHandler = handler.NewScheduleGeneratorHandler(schedulerSvc)

		queueCtx, cancel := context.WithCancel(context.Background())
		schedulerSvc.StartAsyncWorkers(queueCtx)
		defer func() {
			cancel()
			schedulerSvc.StopAsyncWorkers()
		}()
	}

	secured := api.Group("")
	if cfg.JWT.Secret != "" {
		secured.Use(middleware.JWT(cfg.JWT.Secret))
	}

	teachersGroup := secured.Group("/teachers")
	teachersGroup.GET("/:id/assignments", assignmentHandler.List)
	teachersGroup.POST("/:id/assignments", assignmentHandler.Create)
	teachersGroup.DELETE("/:id/assignments/:aid", assignmentHandler.Delete)

	schedulesGroup := secured.Group("/schedules")
	schedulesGroup.GET("/preferences", schedulePreferenceHandler.Get)
	schedulesGroup.POST("/preferences", schedulePreferenceHandler.Upsert)

	if schedulerHandler != nil {
		secured.POST("/schedule/generate", schedulerHandler.Generate)
		secured.POST("/schedules/generator", schedulerHandler.GenerateAlias)
		secured.POST("/schedules/generator/async", schedulerHandler.GenerateAsyncHandler)
		secured.GET("/schedules/generator/async/:jobId", schedulerHandler.GenerateJobStatus)
		secured.POST("/schedule/save", schedulerHandler.Save)
		secured.GET("/semester-schedule", schedulerHandler.List)
		secured.GET("/semester-schedule/:id/slots", schedulerHandler.Slots)
		secured.GET("/semester-schedule/:id/export", schedulerHandler.ExportCSV)
		secured.DELETE("/semester-schedule/:id", schedulerHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
