package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minitwit/internal/cache"
	"minitwit/internal/config"
	"minitwit/internal/database"
	"minitwit/internal/handler"
	"minitwit/internal/redis"
	"minitwit/internal/repository"
	"minitwit/internal/repository/memstore"
	"minitwit/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Repositories is the storage backend the services run on.
type Repositories struct {
	Users         repository.UserRepository
	Follows       repository.FollowRepository
	Messages      repository.MessageRepository
	RefreshTokens repository.RefreshTokenRepository
}

// MemoryRepositories backs every repository with one in-memory store.
func MemoryRepositories(store *memstore.Store) Repositories {
	return Repositories{
		Users:         store.Users(),
		Follows:       store.Follows(),
		Messages:      store.Messages(),
		RefreshTokens: store.RefreshTokens(),
	}
}

// NewHandler wires services and handlers over repos. timelineCache may be nil.
func NewHandler(cfg *config.Config, repos Repositories, timelineCache cache.TimelineCache) stdhttp.Handler {
	userService := service.NewUserService(repos.Users)
	authService := service.NewAuthService(repos.RefreshTokens, cfg)
	followService := service.NewFollowService(repos.Follows, repos.Users, timelineCache)
	messageService := service.NewMessageService(repos.Messages, repos.Follows, timelineCache)
	timelineService := service.NewTimelineService(repos.Users, repos.Follows, repos.Messages, timelineCache)

	return NewRouter(RouterConfig{
		AuthHandler:     handler.NewAuthHandler(userService, authService, cfg),
		TimelineHandler: handler.NewTimelineHandler(timelineService, cfg.PerPage),
		FollowHandler:   handler.NewFollowHandler(followService, userService),
		MessageHandler:  handler.NewMessageHandler(messageService),
		JWTSecret:       cfg.JWTSecret,
	})
}

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	repos, closeStore, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Optional timeline cache
	var timelineCache cache.TimelineCache
	if cfg.RedisURL != "" {
		redisClient, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		timelineCache = cache.NewTimelineCache(redisClient.Client)
	} else {
		slog.Info("REDIS_URL not set, timeline cache disabled", "component", "Server")
	}

	// 4. Setup Server
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           NewHandler(cfg, repos, timelineCache),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "component", "Server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down", "component", "Server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config) (Repositories, func(), error) {
	if cfg.UseMemoryStore() {
		slog.Warn("DB_HOST not set, using in-memory store", "component", "Server")
		return MemoryRepositories(memstore.New()), func() {}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return Repositories{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			db.Close()
			return Repositories{}, nil, err
		}
	}

	repos := Repositories{
		Users:         repository.NewUserRepository(db),
		Follows:       repository.NewFollowRepository(db),
		Messages:      repository.NewMessageRepository(db),
		RefreshTokens: repository.NewRefreshTokenRepository(db),
	}
	return repos, func() { db.Close() }, nil
}
