package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/oculomed/glauco-api/config"
	"github.com/oculomed/glauco-api/internal/email"
	"github.com/oculomed/glauco-api/internal/handler"
	appointmentHandler "github.com/oculomed/glauco-api/internal/handler/appointment"
	authHandler "github.com/oculomed/glauco-api/internal/handler/auth"
	documentHandler "github.com/oculomed/glauco-api/internal/handler/document"
	healthHandler "github.com/oculomed/glauco-api/internal/handler/health"
	iopHandler "github.com/oculomed/glauco-api/internal/handler/iop"
	medicationHandler "github.com/oculomed/glauco-api/internal/handler/medication"
	notificationHandler "github.com/oculomed/glauco-api/internal/handler/notification"
	patientHandler "github.com/oculomed/glauco-api/internal/handler/patient"
	"github.com/oculomed/glauco-api/internal/middleware"
	"github.com/oculomed/glauco-api/internal/push"
	"github.com/oculomed/glauco-api/internal/repository/postgres"
	"github.com/oculomed/glauco-api/internal/router"
	"github.com/oculomed/glauco-api/internal/scheduler"
	appointmentService "github.com/oculomed/glauco-api/internal/service/appointment"
	authService "github.com/oculomed/glauco-api/internal/service/auth"
	documentService "github.com/oculomed/glauco-api/internal/service/document"
	iopService "github.com/oculomed/glauco-api/internal/service/iop"
	medicationService "github.com/oculomed/glauco-api/internal/service/medication"
	notificationService "github.com/oculomed/glauco-api/internal/service/notification"
	patientService "github.com/oculomed/glauco-api/internal/service/patient"
	"github.com/oculomed/glauco-api/pkg/auth"
	"github.com/oculomed/glauco-api/pkg/logger"
	"github.com/oculomed/glauco-api/pkg/messaging/redis"
	"github.com/oculomed/glauco-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("glauco")

	db, err := postgres.NewDB(cfg.Database.ToDatabaseConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	resetRepo := postgres.NewPasswordResetRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	iopRepo := postgres.NewIOPRepository(db)
	medicationRepo := postgres.NewMedicationRepository(db)
	reminderRepo := postgres.NewReminderRepository(db)
	doseRepo := postgres.NewDoseRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	reminderLogRepo := postgres.NewReminderLogRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	subscriptionRepo := postgres.NewPushSubscriptionRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)

	// Infrastructure
	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	gateway, err := push.NewWebPushGateway(cfg.Push.ToGatewayConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize web push gateway")
	}

	jwtSvc := auth.NewJWTService(cfg.JWT.ToJWTConfig())
	emailSvc := email.NewService(cfg.Email.ToEmailConfig())

	// Services
	authSvc := authService.NewService(userRepo, patientRepo, resetRepo, jwtSvc, emailSvc, appLogger)
	patientSvc := patientService.NewService(patientRepo)
	iopSvc := iopService.NewService(iopRepo)
	medicationSvc := medicationService.NewService(medicationRepo, reminderRepo, doseRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, emailSvc, appLogger)
	notificationSvc := notificationService.NewService(
		notificationRepo, subscriptionRepo, gateway, broker, appLogger, appMetrics,
	)

	documentSvc, err := documentService.NewService(documentRepo, cfg.Storage.ToStorageConfig(), appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document storage")
	}

	// Scheduler
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Scheduler.Timezone).Msg("invalid scheduler timezone")
	}
	medicationTask := scheduler.NewMedicationTask(
		reminderRepo, doseRepo, notificationSvc, cfg.Scheduler.MissedGrace, appLogger, appMetrics,
	)
	appointmentTask := scheduler.NewAppointmentTask(
		appointmentRepo, reminderLogRepo, notificationSvc, cfg.Scheduler.OverdueWindow, appLogger, appMetrics,
	)
	sched := scheduler.New(cfg.Scheduler, scheduler.NewClock(loc), medicationTask, appointmentTask, appLogger, appMetrics)
	sched.Start(context.Background())

	// HTTP surface
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	resolver := handler.NewPatientResolver(patientRepo)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}

	routerConfig := router.Config{
		CORSConfig:    corsConfig,
		MetricsPrefix: "glauco_api",
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(
		authMiddleware,
		healthHandler.NewHandler(db),
		authHandler.NewHandler(authSvc),
		routerConfig,
		patientHandler.NewHandler(patientSvc),
		iopHandler.NewHandler(iopSvc, resolver),
		medicationHandler.NewHandler(medicationSvc, resolver),
		appointmentHandler.NewHandler(appointmentSvc, resolver),
		notificationHandler.NewHandler(notificationSvc),
		documentHandler.NewHandler(documentSvc, resolver),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
