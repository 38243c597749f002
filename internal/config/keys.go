package config

import (
	"context"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
)

type KeysConfig struct {
	Dir         string `env:"STEGO_KEY_DIR, default=keys"`
	PublicName  string `env:"STEGO_PUBLIC_KEY_NAME, default=public.pem"`
	PrivateName string `env:"STEGO_PRIVATE_KEY_NAME, default=private.pem"`
}

func NewKeysConfigFromEnv() (*KeysConfig, error) {
	var cfg KeysConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *KeysConfig) PublicPath() string {
	return filepath.Join(c.Dir, c.PublicName)
}

func (c *KeysConfig) PrivatePath() string {
	return filepath.Join(c.Dir, c.PrivateName)
}
