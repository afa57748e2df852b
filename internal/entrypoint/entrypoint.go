package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/config"
	"github.com/mrlokans/lms/internal/crypto"
	"github.com/mrlokans/lms/internal/database"
	auditrepo "github.com/mrlokans/lms/internal/database/audit"
	"github.com/mrlokans/lms/internal/database/notifications"
	"github.com/mrlokans/lms/internal/database/progress"
	"github.com/mrlokans/lms/internal/database/settings"
	http_controllers "github.com/mrlokans/lms/internal/http"
	"github.com/mrlokans/lms/internal/logger"
	"github.com/mrlokans/lms/internal/scheduler"
	"github.com/mrlokans/lms/internal/settingsstore"
	"github.com/mrlokans/lms/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// kill -9 cannot be caught, so only SIGINT and SIGTERM are handled
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Dur("timeout", timeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so no task writes after the server is gone
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown")
	}

	log.Info().Msg("Server exiting")
}

func Run(cfg *config.Config, version string) {
	logger.Setup(cfg.Log)
	log.Info().Str("version", version).Msg("Starting LMS")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	db, err := database.Open(cfg.Database.Path, logger.GormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	sessionSecret := cfg.Auth.SessionSecret
	if sessionSecret == "" {
		sessionSecret, err = auth.GenerateSessionSecret()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to generate session secret")
		}
		log.Warn().Msg("Generated session secret (set AUTH_SESSION_SECRET to persist sessions and meeting credentials)")
	}
	csrfSecret, err := hex.DecodeString(sessionSecret)
	if err != nil {
		// Not hex, use as raw bytes
		csrfSecret = []byte(sessionSecret)
	}

	encryptor, err := crypto.NewEncryptorFromConfig(cfg.Content.EncryptionKey, sessionSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize content encryption")
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	mailer := auth.LogMailer{}

	// Task queue. Without it every task runs inline on the request goroutine.
	notificationRepo := notifications.NewRepository(db.DB)
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize task queue")
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing task client")
			}
		}()
	} else {
		log.Info().Msg("Task queue disabled, tasks run inline")
	}
	dispatcher := tasks.NewDispatcher(taskClient, tasks.Handlers{
		Notifications: notificationRepo,
		Progress:      progress.NewRepository(db.DB),
		NotifCleaner:  notificationRepo,
		AuditCleaner:  auditService,
		Mailer:        mailer,
	})
	if taskClient != nil {
		taskClient.Register(dispatcher.Queues()...)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Authentication
	authService := auth.NewService(db.DB, cfg.Auth, mailer)
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get SQL DB for sessions")
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session manager")
	}
	authController := auth.NewAuthController(authService, sessionManager, cfg.Auth, auditService)

	if hasUsers, _ := authService.HasUsers(); !hasUsers {
		log.Warn().Msg("No users found. Run 'lms create-admin' to create an administrator account.")
	}

	// Maintenance
	settingsStore := settingsstore.New(settings.NewRepository(db.DB), cfg.Maintenance, cfg.Audit)
	maintenance := scheduler.NewMaintenanceScheduler(settingsStore, dispatcher, auditService)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	if err := maintenance.Start(schedCtx); err != nil {
		log.Error().Err(err).Msg("Failed to start maintenance scheduler")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Audit:          auditService,
		AuthService:    authService,
		AuthController: authController,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Dispatcher:     dispatcher,
		Settings:       settingsStore,
		Scheduler:      maintenance,
		Encryptor:      encryptor,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		maintenance.Stop()
		schedCancel()
		authController.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		auditService.Wait()
	}

	Serve(router, cfg, onShutdown)
}
