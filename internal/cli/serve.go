package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/taskmanager/internal/api"
	"github.com/isdelr/taskmanager/internal/api/handlers"
	"github.com/isdelr/taskmanager/internal/cache"
	"github.com/isdelr/taskmanager/internal/config"
	"github.com/isdelr/taskmanager/internal/database"
	"github.com/isdelr/taskmanager/internal/monitoring"
	"github.com/isdelr/taskmanager/internal/services"
	"github.com/isdelr/taskmanager/internal/session"
	"github.com/isdelr/taskmanager/internal/views"
	"github.com/isdelr/taskmanager/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func newSessionStore(ctx context.Context, cfg *config.Config, sqlStore services.SessionStore) (services.SessionStore, func(), error) {
	if cfg.SessionBackend != config.BackendRedis {
		return sqlStore, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return cache.NewRedisSessionStore(rdb), func() { rdb.Close() }, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg, services.NewSQLiteSessionStore(db))
	if err != nil {
		return err
	}
	defer closeSessions()

	// Set up services
	authService := services.NewAuthService(db, sessions, services.AuthOptions{
		Secret:            []byte(cfg.JWTSecret),
		SessionTTL:        cfg.SessionTTL,
		MinPasswordLength: cfg.MinPasswordLength,
		BcryptCost:        cfg.BcryptCost,
	})
	profileService := services.NewProfileService(db)
	taskService := services.NewTaskService(db)

	broker := session.NewBroker(32)
	gateway := session.NewGateway(authService, profileService, broker, cfg.RegisterRedirectDelay)

	// Set up WebSocket Hub
	hub := websocket.NewHub(broker)
	go hub.Run()

	// Set up and run the background session sweeper
	sweeper := monitoring.NewSessionSweeper(sessions, broker, cfg.SessionSweepSchedule)
	if err := sweeper.Start(); err != nil {
		hub.Stop()
		return fmt.Errorf("failed to start session sweeper: %w", err)
	}

	renderer, err := views.New()
	if err != nil {
		sweeper.Stop()
		hub.Stop()
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	router := api.NewRouter(api.Deps{
		Gateway: gateway,
		Tasks:   taskService,
		Views:   renderer,
		Hub:     hub,
		Options: handlers.Options{
			CookieSecure:      cfg.IsProduction(),
			MinPasswordLength: cfg.MinPasswordLength,
			TaskListScope:     cfg.TaskListScope,
			TaskCreateEnabled: cfg.TaskCreateEnabled,
		},
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		log.Info().Msg("Shutting down server...")
	case err := <-serverErr:
		runErr = fmt.Errorf("ListenAndServe(): %w", err)
	}

	sweeper.Stop()
	hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
	return runErr
}
