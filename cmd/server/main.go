package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skeptical-attorney-backend/config"
	"skeptical-attorney-backend/handlers"
	"skeptical-attorney-backend/llm"
	"skeptical-attorney-backend/logging"
	"skeptical-attorney-backend/metrics"
	"skeptical-attorney-backend/middleware"
	"skeptical-attorney-backend/repository"
	"skeptical-attorney-backend/rules"
	"skeptical-attorney-backend/service"
	"skeptical-attorney-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Must(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync() //nolint:errcheck
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	db, err := initPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize Postgres", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Postgres connection established")

	tables, err := rules.TablesFromFile(cfg.Rules.File)
	if err != nil {
		logger.Fatal("failed to load rule tables", zap.String("path", cfg.Rules.File), zap.Error(err))
	}
	logger.Info("rule tables loaded",
		zap.String("jurisdiction", tables.Jurisdiction()),
		zap.Int("deadline_types", len(tables.DeadlineTypes())),
		zap.Int("case_types", len(tables.CaseTypes())),
	)

	model := initModel(ctx, cfg, logger)
	if closer, ok := model.(io.Closer); ok {
		defer closer.Close()
	}

	auditStore, err := initStorage(cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}

	limiter, redisClient := initLimiter(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Repositories
	caseRepo := repository.NewCaseRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Services
	m := metrics.NewAssistant()
	contexts := service.NewContextBuilder(caseRepo, cfg.Location(), time.Now)
	dispatcher := service.NewToolDispatcher(caseRepo, billingRepo, rules.NewCalculator(tables),
		service.WithDispatcherLogger(logger.Named("tools")),
		service.WithDispatcherMetrics(m),
	)
	opts := []service.AssistantServiceOption{
		service.WithContextBuilder(contexts),
		service.WithPromptAssembler(service.NewPromptAssembler(tables)),
		service.WithToolDispatcher(dispatcher),
		service.WithLogger(logger.Named("assistant")),
		service.WithMetrics(m),
		service.WithGenerationSettings(cfg.Model.Temperature, cfg.Model.MaxTokens),
	}
	if model != nil {
		opts = append(opts, service.WithModelClient(model))
	}
	if auditStore != nil {
		opts = append(opts, service.WithAuditRecorder(service.NewAuditRecorder(auditStore, logger.Named("audit"))))
	}
	assistant := service.NewAssistantService(opts...)

	// Handlers
	assistantHandler := handlers.NewAssistantHandler(assistant, logger)
	auth := middleware.NewAuthenticator(tokenRepo, logger.Named("auth"))

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogging(logger.Named("http"), 5*time.Second, "/health", "/metrics"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	api.Use(auth.Require(), middleware.RateLimit(limiter, logger.Named("ratelimit")))
	assistantHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// initModel returns nil when the provider's credential is missing; chat
// requests then answer "AI assistant is not configured"
func initModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) llm.Client {
	client, err := llm.NewClient(ctx, llm.Config{
		Provider:      cfg.Model.Provider,
		GeminiAPIKey:  cfg.Model.GeminiAPIKey,
		OpenAIAPIKey:  cfg.Model.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Model.OpenAIBaseURL,
		Model:         cfg.Model.Name,
		Timeout:       cfg.Model.Timeout,
	})
	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Warn("model credential not set, assistant requests will fail",
			zap.String("provider", cfg.Model.Provider))
		return nil
	}
	if err != nil {
		logger.Fatal("failed to initialize model client", zap.Error(err))
	}
	logger.Info("model client initialized", zap.String("provider", client.Provider()))
	return client
}

// initStorage returns nil when audit records are disabled
func initStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.Type == "none" {
		return nil, nil
	}
	return storage.NewStorage(storage.StorageConfig{
		Type:         storage.StorageType(cfg.Storage.Type),
		LocalPath:    cfg.Storage.LocalPath,
		S3Bucket:     cfg.Storage.S3Bucket,
		S3Region:     cfg.Storage.AWSRegion,
		AWSAccessKey: cfg.Storage.AWSKeyID,
		AWSSecretKey: cfg.Storage.AWSSecret,
	})
}

// initLimiter uses Redis when REDIS_ADDR is set and reachable, otherwise
// an in-process limiter
func initLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (middleware.RateLimiter, *redis.Client) {
	limit, window := cfg.Redis.RateLimitMax, cfg.Redis.RateLimitWindow
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory rate limiter")
		return middleware.NewMemoryLimiter(limit, window), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, using in-memory rate limiter",
			zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		client.Close()
		return middleware.NewMemoryLimiter(limit, window), nil
	}
	logger.Info("Redis rate limiter enabled", zap.String("addr", cfg.Redis.Addr))
	return middleware.NewRedisLimiter(client, limit, window), client
}
