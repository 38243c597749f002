package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/glizzus/sound-cipher/internal/config"
	"github.com/urfave/cli/v2"
)

var stdinReader = bufio.NewReader(os.Stdin)

// prompt reads one line from stdin. End of input without a newline still
// returns what was typed.
func prompt(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	input, err := stdinReader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(input, "\r\n"), nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:        "sound-cipher",
		Usage:       "Hide RSA-encrypted messages in audio",
		Description: "Encrypts a short message with RSA-OAEP and embeds it in one DCT coefficient per audio block.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "YAML file with codec settings shared by sender and receiver",
				EnvVars: []string{"STEGO_PROFILE"},
			},
		},
		Before: func(c *cli.Context) error {
			if profile := c.String("profile"); profile != "" {
				return os.Setenv("STEGO_PROFILE", profile)
			}
			return nil
		},
		Commands: []*cli.Command{
			keygenCommand(),
			embedCommand(),
			extractCommand(),
			capacityCommand(),
			generateCommand(),
			measureCommand(),
			submitCommand(),
			fetchCommand(),
			listCommand(),
		},
	}
}

func main() {
	if err := config.LoadEnv(); err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load .env file: %v", err)
		}
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
