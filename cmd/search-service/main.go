// cmd/search-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/curios-devops/curios-search/internal/answer"
	"github.com/curios-devops/curios-search/internal/api"
	"github.com/curios-devops/curios-search/internal/common/config"
	"github.com/curios-devops/curios-search/internal/common/database"
	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/common/observability"
	"github.com/curios-devops/curios-search/internal/perspective"
	"github.com/curios-devops/curios-search/internal/providers/apify"
	"github.com/curios-devops/curios-search/internal/providers/bingvision"
	"github.com/curios-devops/curios-search/internal/providers/brave"
	"github.com/curios-devops/curios-search/internal/providers/openai"
	"github.com/curios-devops/curios-search/internal/providers/tavily"
	"github.com/curios-devops/curios-search/internal/search"
	"github.com/curios-devops/curios-search/internal/uploads"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting search service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	jaegerEndpoint := ""
	if cfg.Tracing.Enabled {
		jaegerEndpoint = cfg.Tracing.JaegerEndpoint
	}
	obs := observability.New(cfg.App.Name, jaegerEndpoint)
	defer obs.Shutdown()

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return redisClient.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "Redis initialization")
	if err != nil {
		zapLog.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	// --- Providers ---
	braveClient := brave.NewClient(&brave.Config{
		BaseURL: cfg.Providers.Brave.BaseURL,
		APIKey:  cfg.Providers.Brave.APIKey,
		Timeout: config.GetDuration(cfg.Providers.Brave.Timeout),
		Count:   cfg.Search.MaxResults,
	}, log)

	apifyClient := apify.NewClient(&apify.Config{
		BaseURL:    cfg.Providers.Apify.BaseURL,
		Token:      cfg.Providers.Apify.Token,
		ActorID:    cfg.Providers.Apify.ActorID,
		Timeout:    config.GetDuration(cfg.Providers.Apify.Timeout),
		MaxResults: cfg.Search.MaxResults,
	}, log)

	tavilyClient := tavily.NewClient(&tavily.Config{
		BaseURL:    cfg.Providers.Tavily.BaseURL,
		APIKey:     cfg.Providers.Tavily.APIKey,
		Timeout:    config.GetDuration(cfg.Providers.Tavily.Timeout),
		MaxResults: cfg.Search.MaxResults,
	}, log)

	bingClient := bingvision.NewClient(&bingvision.Config{
		BaseURL: cfg.Providers.BingVision.BaseURL,
		APIKey:  cfg.Providers.BingVision.APIKey,
		Timeout: config.GetDuration(cfg.Providers.BingVision.Timeout),
	}, log)

	openaiClient := openai.NewClient(&openai.Config{
		BaseURL:      cfg.Providers.OpenAI.BaseURL,
		APIKey:       cfg.Providers.OpenAI.APIKey,
		Organization: cfg.Providers.OpenAI.Organization,
		ProjectID:    cfg.Providers.OpenAI.ProjectID,
		Temperature:  cfg.Providers.OpenAI.Temperature,
		MaxTokens:    cfg.Providers.OpenAI.MaxTokens,
		MaxRetries:   cfg.Providers.OpenAI.MaxRetries,
		Timeout:      config.GetDuration(cfg.Providers.OpenAI.Timeout),
	}, log)

	// --- Core components ---
	history := search.NewHistory(cfg.Search.HistoryCapacity)

	orchestrator := search.NewOrchestrator(
		braveClient,
		apifyClient,
		bingClient,
		search.Options{
			MaxResults:    cfg.Search.MaxResults,
			FallbackDelay: config.GetDuration(cfg.Search.FallbackDelay),
		},
		history,
		obs,
		log,
	)

	generator := answer.NewGenerator(openaiClient, answer.Config{
		TextModel:   cfg.Providers.OpenAI.TextModel,
		VisionModel: cfg.Providers.OpenAI.VisionModel,
		Temperature: cfg.Providers.OpenAI.Temperature,
		MaxTokens:   cfg.Providers.OpenAI.MaxTokens,
	}, log)

	perspectiveAgent := perspective.NewAgent(tavilyClient, braveClient, openaiClient, perspective.Config{
		Model:       cfg.Providers.OpenAI.VisionModel,
		Temperature: cfg.Providers.OpenAI.Temperature,
		MaxTokens:   cfg.Providers.OpenAI.MaxTokens,
	}, log)

	uploadStore := uploads.NewStore(
		redisClient.Client,
		time.Duration(cfg.Search.UploadTTLSeconds)*time.Second,
		log,
	)

	// --- HTTP server ---
	handler := api.NewHandler(orchestrator, generator, perspectiveAgent, uploadStore, openaiClient, history, log)
	server := api.NewServer(cfg, handler, redisClient.Ping, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}

	zapLog.Info("search service stopped")
}
