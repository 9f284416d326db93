package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcAdapter "github.com/Abdurahmanit/GroupProject/account-service/internal/adapter/grpc"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/adapter/httpapi"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/cache"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/events"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/tracer"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/repository"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/repository/memory"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/security"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/usecase"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("mail_provider", cfg.MailProvider),
		zap.Bool("redis_enabled", cfg.RedisAddr != ""),
		zap.Bool("nats_enabled", cfg.NATSURL != ""),
	)
	if cfg.UsesDefaultSecret() {
		appLogger.Warn("JWT_SECRET uses the placeholder value; accepted only with the in-memory store")
	}

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTELEndpoint, appLogger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	metricsManager := metrics.NewMetricsManager("account_service")
	metricsServer := metrics.NewServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry)
	go func() {
		if err := metricsServer.Start(); err != nil {
			appLogger.Error("Prometheus metrics server failed", zap.Error(err))
		}
	}()

	grpcServer := grpcAdapter.NewServer(cfg.ServiceName, cfg.GRPCPort, appLogger)
	go func() {
		if err := grpcServer.Start(); err != nil {
			appLogger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	repo, closeStore := openStore(startupCtx, cfg, appLogger)
	defer closeStore()

	profileCache, closeCache := openCache(startupCtx, cfg, appLogger)
	defer closeCache()

	publisher, closePublisher := openPublisher(cfg, appLogger)
	defer closePublisher()

	mail, err := newMailer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	sessions := security.NewSessionTokenService(security.SessionConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	}, security.SystemClock)

	userUsecase := usecase.NewUserUsecase(usecase.Deps{
		Repo:    repo,
		Hasher:  security.NewBcryptHasher(security.DefaultBcryptCost),
		Tokens:  sessions,
		Resets:  security.NewResetTokenIssuer(nil),
		Mailer:  mail,
		Cache:   profileCache,
		Events:  publisher,
		Clock:   security.SystemClock,
		Metrics: metricsManager,
		Logger:  appLogger,
	}, usecase.Config{ResetURLBase: cfg.ResetURLBase})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpapi.NewRouter(userUsecase, appLogger, metricsManager),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	grpcServer.SetServing(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := grpcServer.Stop(ctx); err != nil {
		appLogger.Error("gRPC server shutdown failed", zap.Error(err))
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		appLogger.Error("Metrics server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Application shutting down...")
}

func openStore(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (usecase.UserRepository, func()) {
	if cfg.StoreDriver == "memory" {
		appLogger.Warn("Using in-memory user store; accounts are lost on restart")
		return memory.NewUserRepo(), func() {}
	}

	client, err := repository.NewMongoClient(ctx, cfg.MongoURI)
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	appLogger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))
	repo := repository.NewUserRepository(client.Database(cfg.MongoDatabase), appLogger)
	return repo, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}
}

func openCache(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (usecase.ProfileCache, func()) {
	if cfg.RedisAddr == "" {
		appLogger.Info("Profile cache disabled (REDIS_ADDR not set)")
		return cache.Noop{}, func() {}
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		appLogger.Warn("Redis unavailable, profile cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return cache.Noop{}, func() {}
	}
	appLogger.Info("Profile cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.ProfileCacheTTL))
	return cache.NewProfileCache(client, cfg.ProfileCacheTTL), func() {
		if err := client.Close(); err != nil {
			appLogger.Error("Error closing Redis client", zap.Error(err))
		}
	}
}

func openPublisher(cfg *config.Config, appLogger *logger.Logger) (usecase.EventPublisher, func()) {
	if cfg.NATSURL == "" {
		appLogger.Info("Event publishing disabled (NATS_URL not set)")
		return events.Noop{}, func() {}
	}
	publisher, err := events.NewPublisher(cfg.NATSURL, appLogger, cfg.ServiceName)
	if err != nil {
		appLogger.Warn("NATS unavailable, event publishing disabled", zap.Error(err))
		return events.Noop{}, func() {}
	}
	return publisher, publisher.Close
}

func newMailer(cfg *config.Config, appLogger *logger.Logger) (usecase.Mailer, error) {
	from := mailer.Sender{Name: cfg.FromName, Email: cfg.FromEmail}
	switch cfg.MailProvider {
	case "smtp":
		return mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     from,
		}, appLogger)
	case "mailersend":
		return mailer.NewMailerSendService(mailer.MailerSendConfig{
			APIKey: cfg.MailerSendAPIKey,
			URL:    cfg.MailerSendAPIURL,
			From:   from,
		}, appLogger)
	default:
		appLogger.Warn("MAIL_PROVIDER=log: reset emails are written to the log instead of being sent")
		return mailer.NewLogMailer(appLogger), nil
	}
}
