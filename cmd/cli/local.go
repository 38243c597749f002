package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/glizzus/sound-cipher/internal/audio"
	"github.com/glizzus/sound-cipher/internal/config"
	"github.com/glizzus/sound-cipher/internal/envelope"
	"github.com/glizzus/sound-cipher/internal/measure"
	"github.com/glizzus/sound-cipher/internal/pipeline"
	"github.com/glizzus/sound-cipher/internal/presenters"
	"github.com/glizzus/sound-cipher/internal/stego"
	"github.com/glizzus/sound-cipher/internal/testsignal"
	"github.com/urfave/cli/v2"
)

func stegoConfig() (*config.StegoConfig, pipeline.Options, error) {
	cfg, err := config.NewStegoConfigFromEnv()
	if err != nil {
		return nil, pipeline.Options{}, fmt.Errorf("invalid stego config: %w", err)
	}
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	return cfg, opts, nil
}

func messageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "message",
			Aliases: []string{"m"},
			Usage:   "Secret message; prompted for when neither --message nor --message-file is given",
		},
		&cli.PathFlag{
			Name:  "message-file",
			Usage: "Read the secret message from a file",
		},
	}
}

func readMessage(c *cli.Context, limit int) (string, error) {
	switch {
	case c.IsSet("message"):
		return c.String("message"), nil
	case c.IsSet("message-file"):
		data, err := os.ReadFile(c.Path("message-file"))
		if err != nil {
			return "", fmt.Errorf("failed to read message file: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	default:
		return prompt(fmt.Sprintf("Enter secret message (max %d bytes)", limit))
	}
}

// describeSealError turns the common failures into messages a user can act on.
func describeSealError(err error, limit int) string {
	switch {
	case errors.Is(err, envelope.ErrMessageTooLong):
		return fmt.Sprintf("Message too long! Maximum %d bytes (non-ASCII characters count as multiple bytes)", limit)
	case errors.Is(err, stego.ErrInsufficientCapacity):
		return "Cover audio is too short for this message: " + err.Error()
	default:
		return err.Error()
	}
}

func embedCommand() *cli.Command {
	return &cli.Command{
		Name:  "embed",
		Usage: "Encrypt a message and hide it in a cover file",
		Flags: append([]cli.Flag{
			&cli.PathFlag{Name: "in", Aliases: []string{"i"}, Usage: "Cover audio (WAV or Ogg Opus)", Required: true},
			&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Usage: "Stego WAV to write", Value: "stego.wav"},
			&cli.PathFlag{Name: "public-key", Usage: "Recipient public key PEM (default: generated in --key-dir if missing)"},
			keyDirFlag(),
		}, messageFlags()...),
		Action: func(c *cli.Context) error {
			cfg, opts, err := stegoConfig()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			publicPath := c.Path("public-key")
			if publicPath == "" {
				keys, err := keyPaths(c)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if err := ensureKeys(keys, cfg.KeyBits); err != nil {
					return cli.Exit("Failed to generate keys: "+err.Error(), 1)
				}
				publicPath = keys.PublicPath()
			}
			publicPEM, err := readKey(publicPath)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			cover, err := audio.ReadFile(c.Path("in"), cfg.DownmixMode())
			if err != nil {
				return cli.Exit("Failed to read cover: "+err.Error(), 1)
			}

			message, err := readMessage(c, opts.MaxMessageBytes)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			stegoSignal, err := pipeline.Seal(message, publicPEM, cover, opts)
			if err != nil {
				return cli.Exit(describeSealError(err, opts.MaxMessageBytes), 1)
			}
			if err := audio.WriteFile(c.Path("out"), stegoSignal, audio.StegoBits); err != nil {
				return cli.Exit("Failed to write stego audio: "+err.Error(), 1)
			}

			log.Printf("Message encrypted and embedded into %s", c.Path("out"))
			log.Printf("SNR %.2f dB, PSNR %.2f dB", measure.SNR(cover.Samples, stegoSignal.Samples), measure.PSNR(cover.Samples, stegoSignal.Samples))
			return nil
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Recover and decrypt a message from a stego file",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "in", Aliases: []string{"i"}, Usage: "Stego audio", Required: true},
			&cli.PathFlag{Name: "private-key", Usage: "Private key PEM (default: private.pem in --key-dir)"},
			keyDirFlag(),
		},
		Action: func(c *cli.Context) error {
			cfg, opts, err := stegoConfig()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			privatePath := c.Path("private-key")
			if privatePath == "" {
				keys, err := keyPaths(c)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				privatePath = keys.PrivatePath()
			}
			privatePEM, err := readKey(privatePath)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			signal, err := audio.ReadFile(c.Path("in"), cfg.DownmixMode())
			if err != nil {
				return cli.Exit("Failed to read stego audio: "+err.Error(), 1)
			}
			message, err := pipeline.Open(signal, privatePEM, opts)
			if err != nil {
				return cli.Exit("Failed to recover message: "+err.Error(), 1)
			}
			fmt.Fprintln(c.App.Writer, message)
			return nil
		},
	}
}

func capacityCommand() *cli.Command {
	return &cli.Command{
		Name:  "capacity",
		Usage: "Report how much a cover file can carry",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "in", Aliases: []string{"i"}, Usage: "Cover audio", Required: true},
			&cli.PathFlag{Name: "public-key", Usage: "Also check whether a ciphertext for this key fits"},
		},
		Action: func(c *cli.Context) error {
			cfg, opts, err := stegoConfig()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			cover, err := audio.ReadFile(c.Path("in"), cfg.DownmixMode())
			if err != nil {
				return cli.Exit("Failed to read cover: "+err.Error(), 1)
			}

			report := measure.Capacity(len(cover.Samples), opts.Params.BlockSize)
			log.Printf("Cover %s: %.2fs at %d Hz", c.Path("in"), cover.Duration(), cover.SampleRate)

			if !c.IsSet("public-key") {
				return presenters.WriteCapacity(c.App.Writer, report, opts.Params.BlockSize, nil)
			}
			publicPEM, err := readKey(c.Path("public-key"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fit, err := pipeline.Capacity(cover, publicPEM, opts)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := presenters.WriteCapacity(c.App.Writer, report, opts.Params.BlockSize, &fit); err != nil {
				return err
			}
			if !fit.Fits() {
				return cli.Exit("", 2)
			}
			return nil
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Write a synthetic cover signal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "variant",
				Usage: "One of " + strings.Join(testsignal.Variants(), ", "),
				Value: testsignal.VariantMultiTone,
			},
			&cli.IntFlag{Name: "rate", Usage: "Sample rate in Hz", Value: 48000},
			&cli.Float64Flag{Name: "seconds", Usage: "Duration", Value: 45},
			&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Usage: "WAV file to write", Value: "cover.wav"},
		},
		Action: func(c *cli.Context) error {
			cfg, _, err := stegoConfig()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			rate := c.Int("rate")
			samples := int(c.Float64("seconds") * float64(rate))
			data, err := testsignal.Generate(c.String("variant"), rate, samples)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := audio.WriteFile(c.Path("out"), audio.Signal{Samples: data, SampleRate: rate}, cfg.CoverWAVBits); err != nil {
				return cli.Exit("Failed to write cover: "+err.Error(), 1)
			}
			log.Printf("Wrote %d samples of %s to %s", samples, c.String("variant"), c.Path("out"))
			return nil
		},
	}
}
