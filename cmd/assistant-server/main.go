// cmd/assistant-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"benefits-assistant/internal/common/aws"
	"benefits-assistant/internal/common/config"
	"benefits-assistant/internal/common/database"
	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/common/observability"
	"benefits-assistant/internal/dataset"
	"benefits-assistant/internal/delegate"
	"benefits-assistant/internal/ledger"
	"benefits-assistant/internal/router"
	"benefits-assistant/internal/server"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting benefits assistant...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("benefits-assistant")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AWS Clients ---
	lambdaClient, err := aws.NewLambdaClient(ctx, cfg.AWS.Region)
	if err != nil {
		zapLog.Fatal("lambda client failed", zap.Error(err))
	}

	bedrockClient, err := aws.NewBedrockClient(ctx, cfg.AWS.Region)
	if err != nil {
		zapLog.Fatal("bedrock client failed", zap.Error(err))
	}

	// --- Load Benefits Dataset (cold start) ---
	var src dataset.Source
	if cfg.Dataset.Source == "s3" {
		s3Client, err := aws.NewS3Client(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("s3 client failed", zap.Error(err))
		}
		src = &dataset.S3Source{Client: s3Client, Bucket: cfg.Dataset.Bucket, Key: cfg.Dataset.Key}
	} else {
		src = &dataset.FileSource{Path: cfg.Dataset.Path}
	}

	ds := dataset.Load(ctx, src, cfg.Dataset.LabelColumn, log)
	zapLog.Info("benefits dataset loaded",
		zap.Int("records", ds.Len()),
		zap.Strings("plans", ds.Plans()),
	)

	// --- Assemble the Request Pipeline ---
	store := ledger.NewRedisLedger(redisClient, log)

	fallback := delegate.NewLambdaFallback(
		lambdaClient,
		cfg.Fallback.FunctionName,
		cfg.FallbackTimeout(),
		log,
	)

	summarizer := delegate.NewBedrockSummarizer(
		bedrockClient,
		cfg.Summary.ModelID,
		cfg.Summary.MaxTokens,
		cfg.Summary.Temperature,
		cfg.SummaryTimeout(),
		log,
	)

	rt := router.New(ds, store, fallback, summarizer, log)
	srv := server.New(cfg, rt, store, redisClient, ds, obs, log)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down http server", zap.Error(err))
	}

	zapLog.Info("Benefits assistant stopped gracefully")
}
