package main

import (
	"context"
	"fmt"
	"os"

	"github.com/glizzus/sound-cipher/internal/config"
	"github.com/glizzus/sound-cipher/internal/datalayer"
	"github.com/glizzus/sound-cipher/internal/generator"
	"github.com/glizzus/sound-cipher/internal/presenters"
	"github.com/glizzus/sound-cipher/internal/repository"
	"github.com/glizzus/sound-cipher/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

var uuidGenerator = generator.UUIDV4Generator{}

// services holds connections to the shared backends. Commands open only what
// they use.
type services struct {
	pool    *pgxpool.Pool
	repo    *repository.PostgresArtefactRepository
	storage *datalayer.MinioStorage
	rdb     *redis.Client
}

func (s *services) Close() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func connect(ctx context.Context, withQueue bool) (*services, error) {
	s := &services{}

	pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	if err := datalayer.MigratePostgres(pool); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	s.repo = repository.NewPostgresArtefactRepository(pool)

	storage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}
	s.storage = storage

	if withQueue {
		redisConfig, err := config.NewRedisConfigFromEnv()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to load redis config: %w", err)
		}
		s.rdb = redis.NewClient(&redis.Options{
			Addr:     redisConfig.Addr,
			Password: redisConfig.Password,
			DB:       redisConfig.DB,
		})
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}
	return s, nil
}

func (s *services) client(stegoCfg *config.StegoConfig, workerCfg *config.WorkerConfig) *worker.Client {
	var publisher worker.JobPublisher
	if s.rdb != nil {
		publisher = worker.NewRedisJobPublisher(s.rdb, workerCfg.Stream)
	}
	return worker.NewClient(s.storage, s.repo, publisher, &uuidGenerator, stegoCfg.DownmixMode())
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Encrypt a message locally and queue it for embedding by a worker",
		Flags: append([]cli.Flag{
			&cli.PathFlag{Name: "in", Aliases: []string{"i"}, Usage: "Cover audio (WAV or Ogg Opus)", Required: true},
			&cli.PathFlag{Name: "public-key", Usage: "Recipient public key PEM (default: public.pem in --key-dir)"},
			keyDirFlag(),
		}, messageFlags()...),
		Action: func(c *cli.Context) error {
			stegoCfg, opts, err := stegoConfig()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			workerCfg, err := config.NewWorkerConfigFromEnv()
			if err != nil {
				return cli.Exit("Invalid worker config: "+err.Error(), 1)
			}

			publicPath := c.Path("public-key")
			if publicPath == "" {
				keys, err := keyPaths(c)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				publicPath = keys.PublicPath()
			}
			publicPEM, err := readKey(publicPath)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			cover, err := os.ReadFile(c.Path("in"))
			if err != nil {
				return cli.Exit("Failed to read cover: "+err.Error(), 1)
			}
			message, err := readMessage(c, opts.MaxMessageBytes)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			svc, err := connect(c.Context, true)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer svc.Close()

			artefact, err := svc.client(stegoCfg, workerCfg).Submit(c.Context, cover, message, publicPEM, opts)
			if err != nil {
				return cli.Exit("Failed to submit: "+describeSealError(err, opts.MaxMessageBytes), 1)
			}
			fmt.Fprintln(c.App.Writer, artefact.ID)
			return nil
		},
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Download an embedded artefact and decrypt its message",
		ArgsUsage: "<artefact-id>",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "private-key", Usage: "Private key PEM (default: private.pem in --key-dir)"},
			&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Usage: "Also save the stego WAV here"},
			keyDirFlag(),
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return cli.Exit("Please provide an artefact ID", 1)
			}
			stegoCfg, _, err := stegoConfig()
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

			svc, err := connect(c.Context, false)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer svc.Close()

			message, err := svc.client(stegoCfg, nil).Fetch(c.Context, id, privatePEM)
			if err != nil {
				return cli.Exit("Failed to fetch: "+err.Error(), 1)
			}

			if out := c.Path("out"); out != "" {
				artefact, err := svc.repo.Get(c.Context, id)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				data, err := svc.storage.Get(c.Context, artefact.StegoKey)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return cli.Exit("Failed to save stego audio: "+err.Error(), 1)
				}
			}
			fmt.Fprintln(c.App.Writer, message)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List recent artefacts",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of artefacts"},
		},
		Action: func(c *cli.Context) error {
			svc, err := connect(c.Context, false)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer svc.Close()

			artefacts, err := svc.repo.List(c.Context, c.Int("limit"))
			if err != nil {
				return cli.Exit("Failed to list artefacts: "+err.Error(), 1)
			}
			return presenters.WriteArtefactTable(c.App.Writer, artefacts)
		},
	}
}
