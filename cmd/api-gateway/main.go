package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/camp-ops/dashboard-api/api/swagger"
	"github.com/camp-ops/dashboard-api/internal/handler"
	"github.com/camp-ops/dashboard-api/internal/middleware"
	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/parser"
	"github.com/camp-ops/dashboard-api/internal/repository"
	"github.com/camp-ops/dashboard-api/internal/service"
	"github.com/camp-ops/dashboard-api/internal/upstream"
	"github.com/camp-ops/dashboard-api/pkg/cache"
	"github.com/camp-ops/dashboard-api/pkg/config"
	"github.com/camp-ops/dashboard-api/pkg/database"
	"github.com/camp-ops/dashboard-api/pkg/jobs"
	"github.com/camp-ops/dashboard-api/pkg/logger"
	corsmiddleware "github.com/camp-ops/dashboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/camp-ops/dashboard-api/pkg/middleware/requestid"
	"github.com/camp-ops/dashboard-api/pkg/storage"
)

// @title Camp Enrollment Dashboard API
// @version 1.0.0
// @description Enrollment reporting, attendance and group management for the camp season
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if err := repository.NewBootstrap(db, logr).Run(ctx, repository.BootstrapParams{
		AdminUsername:   cfg.Bootstrap.AdminUsername,
		AdminPassword:   cfg.Bootstrap.AdminPassword,
		ProgramSettings: seasonProgramDefaults(),
		GlobalSettings:  parser.DefaultGlobalSettings,
	}); err != nil {
		logr.Sugar().Fatalw("database bootstrap failed", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without shared cache", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	calendar := models.NewSeasonCalendar(cfg.Upstream.SeasonYear)
	sessionParser := parser.New(parser.DefaultConfig(), logr)
	upstreamClient := upstream.New(cfg.Upstream, logr)

	metricsSvc := service.NewMetricsService()
	upstreamClient.SetMetrics(metricsSvc)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Snapshot.TTL, logr, cfg.Redis.Enabled && redisClient != nil)

	snapDisk, err := storage.NewJSONFile(cfg.Snapshot.DiskPath)
	if err != nil {
		logr.Sugar().Fatalw("snapshot store init failed", "error", err)
	}
	personsDisk, err := storage.NewJSONFile(cfg.Persons.DiskPath)
	if err != nil {
		logr.Sugar().Fatalw("persons store init failed", "error", err)
	}
	shareDisk, err := storage.NewJSONFile(filepath.Join(filepath.Dir(cfg.Persons.DiskPath), "share_groups.json"))
	if err != nil {
		logr.Sugar().Fatalw("share group store init failed", "error", err)
	}
	historyDisk, err := storage.NewJSONFile(filepath.Join(filepath.Dir(cfg.Snapshot.DiskPath), "enrollment_history.json"))
	if err != nil {
		logr.Sugar().Fatalw("history store init failed", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("export storage init failed", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	fieldTripRepo := repository.NewFieldTripRepository(db)

	settingsSvc := service.NewSettingsService(settingsRepo, validate, logr)
	snapshotSvc := service.NewSnapshotService(service.SnapshotServiceParams{
		Source:   upstreamClient,
		Parser:   sessionParser,
		Calendar: calendar,
		Settings: settingsSvc,
		Cache:    cacheSvc,
		Disk:     snapDisk,
		Logger:   logr,
		Config: service.SnapshotServiceConfig{
			TTL:          cfg.Snapshot.TTL,
			StuckTimeout: cfg.Snapshot.StuckTimeout,
		},
	})
	personSvc := service.NewPersonService(upstreamClient, personsDisk, shareDisk, logr, service.PersonServiceConfig{
		SeasonYear:   cfg.Upstream.SeasonYear,
		BACSyncTTL:   cfg.Persons.BACSyncTTL,
		StuckTimeout: cfg.Persons.StuckTimeout,
	})
	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceParams{
		Store:     attendanceRepo,
		Groups:    groupRepo,
		Access:    settingsSvc,
		Snapshots: snapshotSvc,
		Persons:   personSvc,
		Calendar:  calendar,
		Validator: validate,
		Logger:    logr,
		Config:    service.AttendanceServiceConfig{LockHour: cfg.Attendance.LockHour},
	})
	groupSvc := service.NewGroupService(groupRepo, attendanceSvc, snapshotSvc, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "camp-dashboard-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	fieldTripSvc := service.NewFieldTripService(fieldTripRepo, validate, logr)
	historySvc := service.NewHistoryService(snapshotSvc, historyDisk, cfg.Upstream.SeasonYear, logr)
	exportSvc := service.NewExportService(
		snapshotSvc,
		attendanceSvc,
		exportStore,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
		logr,
	)

	queue := jobs.NewQueue("background", func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case service.JobTypeSnapshotRefresh:
			return snapshotSvc.HandleRefreshJob(ctx, job)
		case service.JobTypeBACSync:
			return personSvc.HandleBACSyncJob(ctx, job)
		case service.JobTypeExportCleanup:
			return exportSvc.HandleCleanupJob(ctx, job)
		default:
			return fmt.Errorf("unknown job type %q", job.Type)
		}
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	snapshotSvc.SetQueue(queue)
	settingsSvc.SetSnapshotInvalidator(snapshotSvc)

	go schedule(ctx, queue, cfg.Persons.BACSyncTTL, service.JobTypeBACSync)
	go schedule(ctx, queue, time.Hour, service.JobTypeExportCleanup)

	authHandler := handler.NewAuthHandler(authSvc)
	dashboardHandler := handler.NewDashboardHandler(snapshotSvc, historySvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, personSvc, calendar, cfg.Attendance.LockHour)
	groupHandler := handler.NewGroupHandler(groupSvc)
	personHandler := handler.NewPersonHandler(personSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	fieldTripHandler := handler.NewFieldTripHandler(fieldTripSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/healthz", metricsHandler.Health)
	r.GET("/readyz", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := string(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/exports/:token", exportHandler.Download)

	authed := api.Group("", middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		authed.GET("/dashboard", dashboardHandler.Get)
		authed.GET("/dashboard/refresh", dashboardHandler.Refresh)
		authed.GET("/dashboard/history/pace", dashboardHandler.Pace)
		authed.GET("/dashboard/history/milestones", dashboardHandler.Milestones)
		authed.GET("/dashboard/history/weekly", dashboardHandler.Weekly)
		authed.GET("/dashboard/status", middleware.RBAC(admin), metricsHandler.Status)

		attendance := authed.Group("/attendance")
		{
			attendance.GET("/campers", attendanceHandler.Campers)
			attendance.GET("/kc", attendanceHandler.KidConnection)
			attendance.POST("/records", attendanceHandler.Record)
			attendance.POST("/records/batch", attendanceHandler.RecordBatch)
			attendance.GET("/summary", attendanceHandler.Summary)
			attendance.GET("/trends", attendanceHandler.Trends)
			attendance.GET("/detail/:personID", attendanceHandler.Detail)
			attendance.GET("/week-info", attendanceHandler.WeekInfo)
			attendance.POST("/sync-bac", middleware.RBAC(admin),
				middleware.Audit(userRepo, models.AuditActionBACSync, "attendance"), attendanceHandler.SyncBAC)
			attendance.GET("/checkpoints", attendanceHandler.Checkpoints)
			attendance.PUT("/checkpoints", middleware.RBAC(admin), attendanceHandler.AddCheckpoint)
			attendance.DELETE("/checkpoints/:id", middleware.RBAC(admin), attendanceHandler.RemoveCheckpoint)
		}

		authed.PUT("/groups", groupHandler.Set)
		authed.GET("/groups", groupHandler.List)

		authed.GET("/persons", personHandler.Details)
		authed.POST("/persons/share-groups", middleware.RBAC(admin), personHandler.SetShareGroups)
		authed.GET("/persons/bac-status", personHandler.BACStatus)

		settings := authed.Group("/settings")
		{
			settings.GET("/programs", settingsHandler.Programs)
			settings.PUT("/programs", middleware.RBAC(admin),
				middleware.Audit(userRepo, models.AuditActionSettingsChange, "program_settings"), settingsHandler.SaveProgram)
			settings.GET("/global", settingsHandler.Globals)
			settings.PUT("/global", middleware.RBAC(admin),
				middleware.Audit(userRepo, models.AuditActionSettingsChange, "global_settings"), settingsHandler.SetGlobal)
			settings.GET("/assignments", middleware.RBAC(admin), settingsHandler.Assignments)
			settings.POST("/assignments", middleware.RBAC(admin), settingsHandler.Assign)
			settings.DELETE("/assignments/:id", middleware.RBAC(admin), settingsHandler.Unassign)
		}

		trips := authed.Group("/field-trips")
		{
			trips.GET("", fieldTripHandler.WeekSchedule)
			trips.POST("", fieldTripHandler.Book)
			trips.DELETE("/:id", fieldTripHandler.Cancel)
			trips.GET("/venues", fieldTripHandler.Venues)
			trips.POST("/venues", middleware.RBAC(admin), fieldTripHandler.AddVenue)
			trips.DELETE("/venues/:id", middleware.RBAC(admin), fieldTripHandler.RemoveVenue)
		}

		export := authed.Group("/export")
		{
			export.GET("/enrollment.csv", exportHandler.Generate(service.ExportTypeEnrollment, service.ExportFormatCSV))
			export.GET("/enrollment.pdf", exportHandler.Generate(service.ExportTypeEnrollment, service.ExportFormatPDF))
			export.GET("/attendance.csv", exportHandler.Generate(service.ExportTypeAttendance, service.ExportFormatCSV))
			export.GET("/attendance.pdf", exportHandler.Generate(service.ExportTypeAttendance, service.ExportFormatPDF))
			export.GET("/roster.csv", exportHandler.Generate(service.ExportTypeRoster, service.ExportFormatCSV))
			export.GET("/roster.pdf", exportHandler.Generate(service.ExportTypeRoster, service.ExportFormatPDF))
		}

		users := authed.Group("/users")
		{
			users.GET("", middleware.RBAC(admin), userHandler.List)
			users.POST("", middleware.RBAC(admin),
				middleware.Audit(userRepo, models.AuditActionUserCreate, "users"), userHandler.Create)
			users.GET("/:username", middleware.RBAC(admin, "SELF"), userHandler.Get)
			users.PUT("/:username", middleware.RBAC(admin),
				middleware.Audit(userRepo, models.AuditActionUserUpdate, "users"), userHandler.Update)
			users.PUT("/:username/password", middleware.RBAC(admin),
				middleware.Audit(userRepo, models.AuditActionPasswordChange, "users"), userHandler.ResetPassword)
			users.DELETE("/:username", middleware.RBAC(admin),
				middleware.Audit(userRepo, models.AuditActionUserDelete, "users"), userHandler.Delete)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "season", cfg.Upstream.SeasonYear)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// seasonProgramDefaults builds the program_settings seed rows from the
// season tables, with every offered week active.
func seasonProgramDefaults() []models.ProgramSetting {
	out := make([]models.ProgramSetting, 0, len(parser.ProgramOrder))
	for _, program := range parser.ProgramOrder {
		weeks := parser.DefaultWeeksOffered[program]
		if weeks <= 0 {
			weeks = models.MaxWeek
		}
		active := make([]string, 0, weeks)
		for w := 1; w <= weeks; w++ {
			active = append(active, strconv.Itoa(w))
		}
		out = append(out, models.ProgramSetting{
			ProgramName:  program,
			Goal:         parser.DefaultGoals[program],
			WeeksOffered: weeks,
			WeeksActive:  strings.Join(active, ","),
			Active:       true,
		})
	}
	return out
}

// schedule enqueues one job of the given type on every tick until ctx ends.
func schedule(ctx context.Context, queue *jobs.Queue, interval time.Duration, jobType string) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType})
		}
	}
}
