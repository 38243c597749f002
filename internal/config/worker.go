package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type WorkerConfig struct {
	Stream   string `env:"STEGO_JOB_STREAM, default=stego_jobs"`
	Group    string `env:"STEGO_JOB_GROUP, default=stego_embedders"`
	Consumer string `env:"STEGO_JOB_CONSUMER"`
	// RetryAfter is how long a job may stay unacked before it is handed out again.
	RetryAfter time.Duration `env:"STEGO_JOB_RETRY_AFTER, default=30s"`

	RetentionCron string        `env:"STEGO_RETENTION_CRON, default=0 * * * *"`
	Retention     time.Duration `env:"STEGO_RETENTION, default=168h"`

	// MetricsAddr is where /metrics is served; empty disables the listener.
	MetricsAddr string `env:"STEGO_METRICS_ADDR, default=:9464"`
}

// NewWorkerConfigFromEnv reads the worker settings. The consumer name falls
// back to the hostname.
func NewWorkerConfigFromEnv() (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.Consumer == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to get hostname: %w", err)
		}
		cfg.Consumer = host
	}
	if cfg.RetryAfter <= 0 {
		return nil, fmt.Errorf("STEGO_JOB_RETRY_AFTER must be positive, got %s", cfg.RetryAfter)
	}
	if cfg.Retention <= 0 {
		return nil, fmt.Errorf("STEGO_RETENTION must be positive, got %s", cfg.Retention)
	}
	return &cfg, nil
}
