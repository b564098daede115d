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

	_ "github.com/lib/pq"

	"tipprunde/config"
	"tipprunde/db"
	"tipprunde/handlers"
	"tipprunde/kicktipp"
	"tipprunde/live"
	"tipprunde/repositories"
	"tipprunde/routes"
	"tipprunde/services"
	"tipprunde/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
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

	if err := db.Migrate(context.Background(), dbConn); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	// Загрузчик файлов: Cloudflare R2, либо заглушка без конфигурации
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		uploader = storage.NewNoopUploader()
		logger.Info("file uploads disabled, R2 is not configured")
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	memberRepo := repositories.NewPostgresMemberRepository(dbConn)
	pointsRepo := repositories.NewPostgresPointsStatusRepository(dbConn)
	victoryRepo := repositories.NewPostgresVictoryStatusRepository(dbConn)
	configRepo := repositories.NewPostgresGameConfigRepository(dbConn)
	payoutRepo := repositories.NewPostgresPlacementPayoutRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	jwtSecret := []byte(cfg.JWTSecretKey)
	scraper := kicktipp.NewClient()

	authService := services.NewAuthService(userRepo, jwtSecret)
	gameService := services.NewGameService(dbConn, gameRepo, memberRepo, pointsRepo, victoryRepo, configRepo, payoutRepo, uploader)
	memberService := services.NewMemberService(dbConn, gameRepo, memberRepo, pointsRepo, victoryRepo)
	evaluationService := services.NewEvaluationService(dbConn, gameRepo, memberRepo, pointsRepo, victoryRepo, configRepo, payoutRepo)
	syncService := services.NewSyncService(dbConn, gameRepo, memberRepo, pointsRepo, victoryRepo, scraper, wsHub, logger)
	logger.Info("services initialized")

	// Планировщик фоновой синхронизации всех игр
	if cfg.SyncIntervalMinutes > 0 {
		interval := time.Duration(cfg.SyncIntervalMinutes) * time.Minute
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			logger.Info("sync scheduler started", slog.Duration("interval", interval))

			if _, err := syncService.SyncAllGames(context.Background()); err != nil {
				logger.Error("scheduler: initial sync failed", slog.Any("error", err))
			}

			for range ticker.C {
				if _, err := syncService.SyncAllGames(context.Background()); err != nil {
					logger.Error("scheduler: periodic sync failed", slog.Any("error", err))
				}
			}
		}()
	} else {
		logger.Info("sync scheduler disabled")
	}

	// Инициализация обработчиков HTTP
	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Games:     handlers.NewGameHandler(gameService, evaluationService, syncService),
		Members:   handlers.NewMemberHandler(memberService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, logger),
	}
	router := routes.SetupRoutes(h, jwtSecret)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
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

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shut down gracefully")
		}
	}
}
