package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Dosada05/cup-manager/config"
	"github.com/Dosada05/cup-manager/db"
	"github.com/Dosada05/cup-manager/handlers"
	"github.com/Dosada05/cup-manager/repositories"
	api "github.com/Dosada05/cup-manager/routes"
	"github.com/Dosada05/cup-manager/services"
	"github.com/Dosada05/cup-manager/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.DefaultPoolOptions(), logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.RunMigrations {
		if err := db.RunMigrations(dbConn); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	// Хранилище файлов: Cloudflare R2, если настроено, иначе локальный диск
	uploader, staticDir, err := newUploader(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize file uploader", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация репозиториев
	transactor := repositories.NewPostgresTransactor(dbConn, logger)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	standingRepo := repositories.NewPostgresLeagueStandingRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	tokens := services.NewTokenIssuer(cfg.JWTSecretKey, cfg.AccessTokenTTL)
	authService := services.NewAuthService(userRepo, tokens, logger)
	userService := services.NewUserService(userRepo, matchRepo, eventRepo, uploader, logger)
	eventService := services.NewEventService(eventRepo, matchRepo, userRepo, registrationRepo, uploader, logger)
	registrationService := services.NewRegistrationService(registrationRepo, eventRepo, userRepo)
	matchService := services.NewMatchService(transactor, matchRepo, eventRepo, userRepo, resultRepo, uploader, cfg.UploadMaxBytes, logger)
	aggregator := services.NewStandingsAggregator(standingRepo)
	resultService := services.NewResultService(transactor, resultRepo, matchRepo, eventRepo, aggregator, logger)
	standingsService := services.NewStandingsService(eventRepo, standingRepo)
	logger.Info("Services initialized")

	if cfg.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := authService.EnsureOrganizer(ctx, cfg.AdminUsername, cfg.AdminPassword)
		cancel()
		if err != nil {
			logger.Error("failed to bootstrap organizer account", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		JWTSecret:          []byte(cfg.JWTSecretKey),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:          staticDir,
		StaticPath:         cfg.UploadPublicPath,
		Logger:             logger,
	}, api.Handlers{
		Health:       handlers.NewHealthHandler(dbConn),
		Auth:         handlers.NewAuthHandler(authService),
		User:         handlers.NewUserHandler(userService, registrationService),
		Event:        handlers.NewEventHandler(eventService, standingsService, registrationService),
		Match:        handlers.NewMatchHandler(matchService, cfg.UploadMaxBytes),
		Result:       handlers.NewResultHandler(resultService),
		Registration: handlers.NewRegistrationHandler(registrationService),
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// newUploader возвращает хранилище и каталог для раздачи статики
// (пустой, если файлы лежат в R2).
func newUploader(cfg *config.Config, logger *slog.Logger) (storage.FileUploader, string, error) {
	if cfg.R2Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
		return uploader, "", nil
	}

	uploader, err := storage.NewLocalUploader(cfg.UploadDir, cfg.UploadPublicPath, logger)
	if err != nil {
		return nil, "", err
	}
	logger.Info("local file uploader initialized", slog.String("dir", cfg.UploadDir))
	return uploader, cfg.UploadDir, nil
}
