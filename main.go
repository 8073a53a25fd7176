package main

import (
	"context"
	"os"
	"time"

	api "devboard-backend/cmd/api"
	authdomain "devboard-backend/internal/auth/domain"
	authRepo "devboard-backend/internal/auth/repository"
	authUsecase "devboard-backend/internal/auth/usecase"
	conndomain "devboard-backend/internal/connection/domain"
	connRepo "devboard-backend/internal/connection/repository"
	connUsecase "devboard-backend/internal/connection/usecase"
	pomodorodomain "devboard-backend/internal/pomodoro/domain"
	pomodoroRepo "devboard-backend/internal/pomodoro/repository"
	pomodoroUsecase "devboard-backend/internal/pomodoro/usecase"
	projectUsecase "devboard-backend/internal/project/usecase"
	spotifyUsecase "devboard-backend/internal/spotify/usecase"
	"devboard-backend/pkg/cache"
	"devboard-backend/pkg/config"
	"devboard-backend/pkg/database"
	"devboard-backend/pkg/provider"

	"github.com/charmbracelet/log"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", "err", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}, &conndomain.Connection{}, &pomodorodomain.Session{}); err != nil {
		logger.Fatal("failed to migrate database", "err", err)
	}

	// Redis backs the cache, the token mirror and the rate limiter. The app
	// stays up without it; everything degrades to direct computation.
	redisClient := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, caching and rate limiting degraded", "addr", cfg.RedisAddr, "err", err)
	}
	cancel()
	appCache := cache.New(redisClient, logger)

	// Provider registry
	registry := provider.NewRegistry(
		provider.NewGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURI),
		provider.NewSpotify(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURI),
	)

	// Initialize repositories (dependency injection)
	userRepository := authRepo.NewUserRepository(db)
	connectionRepository := connRepo.NewGormConnectionRepository(db)
	sessionRepository := pomodoroRepo.NewGormSessionRepository(db)

	// The caller wraps every outbound provider API request with the token
	// lifecycle (proactive refresh, single retry on 401).
	caller := provider.NewCaller(registry, connectionRepository, appCache, logger)

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepository, connectionRepository, registry, appCache, cfg)
	connUsecaseInstance := connUsecase.NewConnectionUsecase(registry, connectionRepository, appCache, logger)
	projectUsecaseInstance := projectUsecase.NewProjectUsecase(caller, appCache)
	spotifyUsecaseInstance := spotifyUsecase.NewSpotifyUsecase(caller, appCache)
	pomodoroUsecaseInstance := pomodoroUsecase.NewPomodoroUsecase(sessionRepository)

	// Initialize HTTP handler
	handler := api.NewHandler(
		authUsecaseInstance,
		connUsecaseInstance,
		projectUsecaseInstance,
		spotifyUsecaseInstance,
		pomodoroUsecaseInstance,
		redisClient,
		cfg,
		logger,
	)

	logger.Info("server starting", "port", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", "err", err)
	}
}
