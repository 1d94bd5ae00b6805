package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vinamind/tamsu-api/internal/api/router"
	appconfig "github.com/vinamind/tamsu-api/internal/config"
	"github.com/vinamind/tamsu-api/internal/chat"
	"github.com/vinamind/tamsu-api/internal/observability/metrics"
	"github.com/vinamind/tamsu-api/pkg/logging"
)

func main() {
	// .env is for local development; in deployed environments the process
	// environment is already populated.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting tamsu API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	awsCfg, err := appconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	usageTable := chat.NewUsageTable(dynamoClient, cfg.TokenUsageTable)
	quota := chat.NewQuotaGate(usageTable, cfg.TokenMonthlyLimit, logger)

	var llm chat.LLMClient
	var streamLLM chat.StreamingLLMClient
	var model string
	switch cfg.LLMProvider {
	case "openai":
		client := chat.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		llm, streamLLM = client, client
		model = cfg.OpenAIModel
	default:
		client := chat.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		llm, streamLLM = client, client
		model = cfg.BedrockModelID
	}

	patterns := chat.DefaultPatternSet()
	if cfg.RiskPatternsFile != "" {
		loaded, err := chat.LoadPatternSet(cfg.RiskPatternsFile)
		if err != nil {
			logger.Error("failed to load risk patterns, using built-in set",
				"file", cfg.RiskPatternsFile, "error", err)
		} else {
			patterns = loaded
		}
	}
	classifier := chat.NewClassifier(patterns)

	var history chat.HistoryProvider
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		history = chat.NewRedisHistoryStore(redis.NewClient(opts), nil)
		logger.Info("session history store enabled", "redis_addr", cfg.RedisAddr)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metrics.NewChatMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	pipeline := chat.NewPipeline(chat.PipelineConfig{
		Classifier: classifier,
		Quota:      quota,
		LLM:        llm,
		StreamLLM:  streamLLM,
		Model:      model,
		Metrics:    chatMetrics,
		Logger:     logger,
	})
	chatHandler := chat.NewHandler(pipeline, history, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSec:    cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		HTTPMetrics:        httpMetrics,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE responses stay open for the length of a
		// model stream.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
