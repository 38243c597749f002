package e2e_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glizzus/sound-cipher/e2e"
	"github.com/glizzus/sound-cipher/internal/audio"
	"github.com/glizzus/sound-cipher/internal/datalayer"
	"github.com/glizzus/sound-cipher/internal/envelope"
	"github.com/glizzus/sound-cipher/internal/generator"
	"github.com/glizzus/sound-cipher/internal/pipeline"
	"github.com/glizzus/sound-cipher/internal/repository"
	"github.com/glizzus/sound-cipher/internal/stego"
	"github.com/glizzus/sound-cipher/internal/testsignal"
	"github.com/glizzus/sound-cipher/internal/worker"
)

func coverWAV(t *testing.T, samples int) []byte {
	t.Helper()
	var buf bytes.Buffer
	cover := audio.Signal{Samples: testsignal.AMMultisine(48000, samples), SampleRate: 48000}
	if err := audio.EncodeWAV(&buf, cover, 32); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSubmitEmbedFetch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	connStr := e2e.UsePostgres(t)
	repo := e2e.GetRepository(t, connStr)
	e2e.SeedGlobalNoise(t, repo)
	rdb := e2e.UseRedis(t)

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Minute)
	defer cancel()

	publicPEM, privatePEM, err := envelope.GenerateKeys(envelope.DefaultKeyBits)
	if err != nil {
		t.Fatal(err)
	}

	params := stego.Params{BlockSize: 128, Coeff: 3, Alpha: 5.0}
	opts := pipeline.Options{Params: params, MaxMessageBytes: envelope.MaxMessageBytes}
	storage := datalayer.NewMemoryStorage()

	receiver, err := worker.NewRedisJobReceiver(ctx, rdb, "e2e_submit", "embedders", "e2e")
	if err != nil {
		t.Fatal(err)
	}
	publisher := worker.NewRedisJobPublisher(rdb, "e2e_submit")
	processor := worker.NewProcessor(storage, repo, audio.DownmixAverage)
	client := worker.NewClient(storage, repo, publisher, &generator.UUIDV4Generator{}, audio.DownmixAverage)

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx, receiver, processor) }()

	good, err := client.Submit(ctx, coverWAV(t, 2100*params.BlockSize), "Rendezvous di stasiun jam 7", publicPEM, opts)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	e2e.WaitFor(t, time.Minute, func() bool {
		a, err := repo.Get(ctx, good.ID)
		return err == nil && a.Status != repository.StatusPending
	})

	msg, err := client.Fetch(ctx, good.ID, privatePEM)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if msg != "Rendezvous di stasiun jam 7" {
		t.Errorf("Fetch() = %q", msg)
	}

	t.Run("The stego object is stored as a float WAV", func(t *testing.T) {
		a, err := repo.Get(ctx, good.ID)
		if err != nil {
			t.Fatal(err)
		}
		data, err := storage.Get(ctx, a.StegoKey)
		if err != nil {
			t.Fatal(err)
		}
		clip, err := audio.DecodeWAV(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		if clip.Channels != 1 || clip.SampleRate != 48000 || clip.Frames() != 2100*params.BlockSize {
			t.Errorf("unexpected stego clip: %d channels, %d Hz, %d frames", clip.Channels, clip.SampleRate, clip.Frames())
		}
	})

	t.Run("A private key for another pair is refused", func(t *testing.T) {
		_, otherPriv, err := envelope.GenerateKeys(1024)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := client.Fetch(ctx, good.ID, otherPriv); !errors.Is(err, worker.ErrKeyMismatch) {
			t.Errorf("Fetch() error = %v, want ErrKeyMismatch", err)
		}
	})

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
