package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sporture-backend/internal/cache"
	"sporture-backend/internal/config"
	"sporture-backend/internal/handlers"
	"sporture-backend/internal/repository"
	"sporture-backend/internal/repository/memstore"
	"sporture-backend/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "config.yaml"

// repositories groups the storage implementations selected by config
type repositories struct {
	users    services.UserRepository
	events   eventStore
	feedback services.FeedbackRepository
}

type eventStore interface {
	services.EventRepository
	services.ReminderRepository
}

func Run() {
	// Load configuration
	configPath := os.Getenv("SPORTURE_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Console)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	repos, closeDB, err := openRepositories(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}
	defer closeDB()

	// Event list cache
	var eventCache services.EventCache
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		defer rdb.Close()
		eventCache = rdb
	}

	// Photo storage
	var photos services.PhotoStore
	var uploadsDir string
	switch cfg.Uploads.Backend {
	case "s3":
		photos, err = services.NewS3PhotoStore(ctx,
			cfg.AWS.Region,
			cfg.AWS.S3Bucket,
			cfg.AWS.AccessKey,
			cfg.AWS.SecretKey,
			cfg.AWS.Endpoint,
			cfg.AWS.PublicURL,
		)
	default:
		var local *services.LocalPhotoStore
		local, err = services.NewLocalPhotoStore(cfg.Uploads.Dir, cfg.Server.PublicURL+cfg.Uploads.URLPrefix)
		photos = local
		if local != nil {
			uploadsDir = local.Dir()
		}
	}
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Uploads.Backend).Msg("Failed to create photo store")
	}

	// Push notifications
	var notifier services.Notifier = services.LogNotifier{}
	if cfg.APNs.Enabled {
		notifier, err = services.NewAPNsNotifier(
			cfg.APNs.KeyFile,
			cfg.APNs.KeyID,
			cfg.APNs.TeamID,
			cfg.APNs.Topic,
			cfg.APNs.Production,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
	}

	// Initialize services
	wsHub := services.NewWSHub()
	userService := services.NewUserService(repos.users, photos, cfg.JWT.Secret, cfg.JWT.TTL)
	eventService := services.NewEventService(repos.events, eventCache, cfg.Redis.TTL, wsHub)
	feedbackService := services.NewFeedbackService(repos.feedback)
	reminderService := services.NewReminderService(repos.events, repos.users, notifier, wsHub, cfg.Reminders.Lead)

	if cfg.Reminders.Enabled {
		go reminderService.Run(ctx, cfg.Reminders.Interval)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		UserService:     userService,
		EventService:    eventService,
		FeedbackService: feedbackService,
		ReminderService: reminderService,
		Hub:             wsHub,
		CORSOrigin:      cfg.Server.CORSOrigin,
		UploadsDir:      uploadsDir,
		UploadsPrefix:   cfg.Uploads.URLPrefix,
		RequestLog:      true,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("database", cfg.Database.Driver).
			Str("uploads", cfg.Uploads.Backend).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	<-ctx.Done()

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Int("ws_clients", wsHub.Count()).Msg("Server exited")
}

// openRepositories connects the configured storage backend. The returned
// func releases it.
func openRepositories(ctx context.Context, cfg *config.DatabaseConfig) (*repositories, func(), error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		store := memstore.New()
		return &repositories{
			users:    store.Users,
			events:   store.Events,
			feedback: store.Feedback,
		}, func() {}, nil
	}

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return &repositories{
		users:    repository.NewUserRepository(db),
		events:   repository.NewEventRepository(db),
		feedback: repository.NewFeedbackRepository(db),
	}, db.Close, nil
}

// setupLogger configures zerolog logger
func setupLogger(level string, console bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
