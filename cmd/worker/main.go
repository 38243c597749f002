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

	"github.com/glizzus/sound-cipher/internal/config"
	"github.com/glizzus/sound-cipher/internal/datalayer"
	"github.com/glizzus/sound-cipher/internal/observe"
	"github.com/glizzus/sound-cipher/internal/repository"
	"github.com/glizzus/sound-cipher/internal/schedule"
	"github.com/glizzus/sound-cipher/internal/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func runWorker(ctx context.Context) error {
	slog.SetLogLoggerLevel(slog.LevelDebug)
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	stegoConfig, err := config.NewStegoConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load stego config: %w", err)
	}
	workerConfig, err := config.NewWorkerConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load worker config: %w", err)
	}
	redisConfig, err := config.NewRedisConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}
	if err := schedule.ValidateCron(workerConfig.RetentionCron); err != nil {
		return err
	}

	pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := datalayer.MigratePostgres(pool); err != nil {
		return fmt.Errorf("failed to migrate postgres: %w", err)
	}
	repo := repository.NewPostgresArtefactRepository(pool)

	storage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	receiver, err := worker.NewRedisJobReceiver(ctx, rdb, workerConfig.Stream, workerConfig.Group, workerConfig.Consumer)
	if err != nil {
		return err
	}
	receiver = receiver.WithRetryAfter(workerConfig.RetryAfter)
	shutdownMetrics, err := observe.InitProvider(ctx, "sound-cipher-worker")
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slog.Error("Failed to shut down metrics", slog.Any("error", err))
		}
	}()
	metrics, err := observe.NewGlobalMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	processor := worker.NewProcessor(storage, repo, stegoConfig.DownmixMode()).WithMetrics(metrics)
	sweeper := worker.NewRetentionSweeper(storage, repo, workerConfig.Retention).WithMetrics(metrics)

	slog.Info(
		"Worker started",
		slog.String("stream", workerConfig.Stream),
		slog.String("group", workerConfig.Group),
		slog.String("consumer", workerConfig.Consumer),
		slog.Duration("retryAfter", workerConfig.RetryAfter),
		slog.String("retentionCron", workerConfig.RetentionCron),
		slog.Duration("retention", workerConfig.Retention),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx, receiver, processor)
	})
	g.Go(func() error {
		return schedule.Every(ctx, workerConfig.RetentionCron, sweeper.Run)
	})
	if workerConfig.MetricsAddr != "" {
		server := &http.Server{Addr: workerConfig.MetricsAddr, Handler: metricsMux()}
		g.Go(func() error {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("Worker stopped")
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runWorker(ctx); err != nil {
		slog.Error("Worker encountered an error", slog.Any("error", err))
		os.Exit(1)
	}
}
