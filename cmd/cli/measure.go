package main

import (
	"fmt"

	"github.com/glizzus/sound-cipher/internal/audio"
	"github.com/glizzus/sound-cipher/internal/envelope"
	"github.com/glizzus/sound-cipher/internal/measure"
	"github.com/urfave/cli/v2"
)

func measureCommand() *cli.Command {
	return &cli.Command{
		Name:  "measure",
		Usage: "Quality and cipher metrics",
		Subcommands: []*cli.Command{
			{
				Name:  "distortion",
				Usage: "SNR and PSNR of a stego file against its cover",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: "original", Usage: "Cover audio", Required: true},
					&cli.PathFlag{Name: "stego", Usage: "Stego audio", Required: true},
				},
				Action: func(c *cli.Context) error {
					cfg, _, err := stegoConfig()
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					original, err := audio.ReadFile(c.Path("original"), cfg.DownmixMode())
					if err != nil {
						return cli.Exit("Failed to read original: "+err.Error(), 1)
					}
					stegoSignal, err := audio.ReadFile(c.Path("stego"), cfg.DownmixMode())
					if err != nil {
						return cli.Exit("Failed to read stego: "+err.Error(), 1)
					}
					if len(original.Samples) != len(stegoSignal.Samples) {
						fmt.Fprintf(c.App.ErrWriter, "warning: lengths differ (%d vs %d), comparing the common prefix\n",
							len(original.Samples), len(stegoSignal.Samples))
					}
					fmt.Fprintf(c.App.Writer, "SNR:  %.2f dB\n", measure.SNR(original.Samples, stegoSignal.Samples))
					fmt.Fprintf(c.App.Writer, "PSNR: %.2f dB\n", measure.PSNR(original.Samples, stegoSignal.Samples))
					return nil
				},
			},
			{
				Name:  "cipher",
				Usage: "Avalanche effect and byte entropy of RSA-OAEP ciphertexts",
				Flags: append([]cli.Flag{
					&cli.PathFlag{Name: "public-key", Usage: "Public key PEM", Required: true},
					&cli.StringFlag{Name: "other", Usage: "Second message for the avalanche test (default: the same message)"},
				}, messageFlags()...),
				Action: func(c *cli.Context) error {
					publicPEM, err := readKey(c.Path("public-key"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					message, err := readMessage(c, envelope.MaxMessageBytes)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					other := message
					if c.IsSet("other") {
						other = c.String("other")
					}

					first, err := envelope.Encrypt(message, publicPEM)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					second, err := envelope.Encrypt(other, publicPEM)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintf(c.App.Writer, "Avalanche: %.2f%%\n", measure.Avalanche(first, second))
					fmt.Fprintf(c.App.Writer, "Entropy:   %.4f bits/byte\n", measure.Entropy(first))
					return nil
				},
			},
		},
	}
}
