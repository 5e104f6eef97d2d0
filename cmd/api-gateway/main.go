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

	_ "github.com/clae-hq/admissions-api/api/swagger"
	"github.com/clae-hq/admissions-api/internal/handler"
	"github.com/clae-hq/admissions-api/internal/middleware"
	"github.com/clae-hq/admissions-api/internal/repository"
	"github.com/clae-hq/admissions-api/internal/service"
	"github.com/clae-hq/admissions-api/pkg/cache"
	"github.com/clae-hq/admissions-api/pkg/config"
	"github.com/clae-hq/admissions-api/pkg/database"
	"github.com/clae-hq/admissions-api/pkg/jobs"
	"github.com/clae-hq/admissions-api/pkg/logger"
	"github.com/clae-hq/admissions-api/pkg/mailer"
	corsmiddleware "github.com/clae-hq/admissions-api/pkg/middleware/cors"
	reqidmiddleware "github.com/clae-hq/admissions-api/pkg/middleware/requestid"
	"github.com/clae-hq/admissions-api/pkg/storage"
)

// @title Clae Admissions API
// @version 1.0.0
// @description Multi-tenant school admissions service
// @BasePath /api
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir, cfg.Uploads.PublicPrefix)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()
	mail := mailer.New(cfg.Mailer.SendgridAPIKey, cfg.Mailer.FromName, cfg.Mailer.FromAddress, logr)

	schoolRepo := repository.NewSchoolRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	classRepo := repository.NewClassRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	notificationService := service.NewNotificationService(appRepo, mail, metricsService, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, cfg.Notifications.Enabled)

	authService := service.NewAuthService(adminRepo, mail, validate, logr, service.AuthConfig{
		TokenSecret:  cfg.JWT.Secret,
		TokenExpiry:  cfg.JWT.Expiration,
		Issuer:       cfg.JWT.Issuer,
		ResetURLBase: cfg.BaseURL,
	})
	schoolService := service.NewSchoolService(schoolRepo, gradeRepo, validate, logr)
	gradeService := service.NewGradeService(gradeRepo, validate, logr)
	classService := service.NewClassService(classRepo, gradeRepo, schoolRepo, validate, logr)
	personnelService := service.NewPersonnelService(adminRepo, validate, logr, 0)
	invitationService := service.NewInvitationService(invitationRepo, schoolRepo, validate, logr, 0)
	intakeService := service.NewIntakeService(appRepo, schoolRepo, notificationService, validate, logr, service.IntakeConfig{
		TrackingPrefix: cfg.Intake.TrackingPrefix,
		CodeRetries:    cfg.Intake.CodeRetries,
	})
	applicationService := service.NewApplicationService(appRepo, notificationService, validate, logr)
	trackingService := service.NewTrackingService(appRepo, cacheRepo, logr, cfg.Tracking.QueueStatsTTL)
	exportService := service.NewExportService(applicationService, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	notificationService.Start(ctx)
	defer notificationService.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))
	r.Static(cfg.Uploads.PublicPrefix, cfg.Uploads.StorageDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router := &handler.Router{
		Auth:        handler.NewAuthHandler(authService),
		Intake:      handler.NewIntakeHandler(intakeService, metricsService),
		Tracking:    handler.NewTrackingHandler(trackingService),
		Upload:      handler.NewUploadHandler(store, cfg.Uploads.MaxFileSizeBytes, logr),
		School:      handler.NewSchoolHandler(schoolService),
		Application: handler.NewApplicationHandler(applicationService, exportService, metricsService),
		Grade:       handler.NewGradeHandler(gradeService),
		Class:       handler.NewClassHandler(classService),
		Personnel:   handler.NewPersonnelHandler(personnelService),
		Invitation:  handler.NewInvitationHandler(invitationService),
		Template:    handler.NewTemplateHandler(notificationService),
		AuthService: authService,
	}
	router.Register(r, cfg.APIPrefix)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
