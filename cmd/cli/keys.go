package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/glizzus/sound-cipher/internal/config"
	"github.com/glizzus/sound-cipher/internal/envelope"
	"github.com/urfave/cli/v2"
)

var errKeysExist = errors.New("key files already exist")

func keyPaths(c *cli.Context) (*config.KeysConfig, error) {
	cfg, err := config.NewKeysConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load key config: %w", err)
	}
	if dir := c.String("key-dir"); dir != "" {
		cfg.Dir = dir
	}
	return cfg, nil
}

// writeKeys generates a pair into cfg.Dir. Existing files are only replaced
// when force is set.
func writeKeys(cfg *config.KeysConfig, bits int, force bool) error {
	if !force {
		for _, p := range []string{cfg.PublicPath(), cfg.PrivatePath()} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%w: %s", errKeysExist, p)
			}
		}
	}

	publicPEM, privatePEM, err := envelope.GenerateKeys(bits)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(cfg.PublicPath(), publicPEM, 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	if err := os.WriteFile(cfg.PrivatePath(), privatePEM, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	return nil
}

// ensureKeys generates a pair when neither key file exists yet.
func ensureKeys(cfg *config.KeysConfig, bits int) error {
	_, pubErr := os.Stat(cfg.PublicPath())
	_, privErr := os.Stat(cfg.PrivatePath())
	if !os.IsNotExist(pubErr) || !os.IsNotExist(privErr) {
		return nil
	}
	log.Printf("No key pair in %s, generating a new one", cfg.Dir)
	return writeKeys(cfg, bits, false)
}

func keyDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "key-dir",
		Usage: "Directory holding public.pem and private.pem (default $STEGO_KEY_DIR)",
	}
}

func readKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate an RSA key pair",
		Flags: []cli.Flag{
			keyDirFlag(),
			&cli.IntFlag{
				Name:  "bits",
				Usage: "Modulus size (default $STEGO_KEY_BITS)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing key files",
			},
		},
		Action: func(c *cli.Context) error {
			keys, err := keyPaths(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			stegoCfg, err := config.NewStegoConfigFromEnv()
			if err != nil {
				return cli.Exit("Invalid stego config: "+err.Error(), 1)
			}
			bits := stegoCfg.KeyBits
			if c.IsSet("bits") {
				bits = c.Int("bits")
			}

			if err := writeKeys(keys, bits, c.Bool("force")); err != nil {
				return cli.Exit("Failed to generate keys: "+err.Error(), 1)
			}
			pub, err := readKey(keys.PublicPath())
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fingerprint, err := envelope.Fingerprint(pub)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			log.Printf("Wrote %s and %s", keys.PublicPath(), keys.PrivatePath())
			log.Printf("Fingerprint: %s", fingerprint)
			return nil
		},
	}
}
