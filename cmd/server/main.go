package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"eventboard/backend/internal/config"
	authdomain "eventboard/backend/internal/domain/auth"
	eventdomain "eventboard/backend/internal/domain/event"
	"eventboard/backend/internal/httpserver"
	"eventboard/backend/internal/infrastructure/memory"
	"eventboard/backend/internal/infrastructure/password"
	"eventboard/backend/internal/infrastructure/postgres"
	"eventboard/backend/internal/infrastructure/token"
	authusecase "eventboard/backend/internal/usecase/auth"
	categoryusecase "eventboard/backend/internal/usecase/category"
	eventusecase "eventboard/backend/internal/usecase/event"

	"github.com/sirupsen/logrus"
)

type repositories struct {
	users      authdomain.UserRepository
	categories eventdomain.CategoryRepository
	events     eventdomain.Repository
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}
	configureLogger(logger, cfg)

	rootCtx := context.Background()

	var (
		repos  repositories
		pinger httpserver.Pinger
	)
	switch cfg.StorageDriver {
	case config.DriverMemory:
		store := memory.NewStore()
		repos = repositories{users: store.Users(), categories: store.Categories(), events: store.Events()}
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		db, err := postgres.New(rootCtx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to database")
		}
		defer db.Close()
		if err := db.Migrate(rootCtx, logger); err != nil {
			logger.WithError(err).Fatal("failed to run database migrations")
		}
		repos = repositories{
			users:      postgres.NewUserRepository(db.Pool),
			categories: postgres.NewCategoryRepository(db.Pool),
			events:     postgres.NewEventRepository(db.Pool),
		}
		pinger = db
	}

	hasher, err := password.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		logger.WithError(err).Fatal("failed to configure password hasher")
	}
	tokenManager := token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)

	authService := authusecase.NewService(repos.users, hasher, tokenManager)
	if cfg.AdminEmail != "" {
		admin, err := authService.EnsureAdmin(rootCtx, authdomain.Credentials{Email: cfg.AdminEmail, Password: cfg.AdminPassword})
		if err != nil {
			logger.WithError(err).Fatal("failed to bootstrap admin account")
		}
		logger.WithField("user_id", admin.ID).Info("admin account ready")
	}

	server := httpserver.NewServer(cfg, httpserver.Services{
		Auth:       authService,
		Categories: categoryusecase.NewService(repos.categories),
		Events:     eventusecase.NewService(repos.events),
	}, pinger, logger)
	logger.WithField("addr", server.Addr()).Info("HTTP server listening")

	go func() {
		if err := server.Start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				logger.Info("HTTP server closed")
				return
			}
			logger.WithError(err).Fatal("server error")
		}
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("graceful shutdown completed")
	}
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}
