package e2e_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/glizzus/sound-cipher/e2e"
	"github.com/glizzus/sound-cipher/internal/datalayer"
	"github.com/glizzus/sound-cipher/internal/generator"
	"github.com/glizzus/sound-cipher/internal/repository"
	"github.com/glizzus/sound-cipher/internal/worker"
)

func TestRetentionSweepPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	connStr := e2e.UsePostgres(t)
	repo := e2e.GetRepository(t, connStr)
	e2e.SeedGlobalNoise(t, repo)
	ctx := t.Context()

	storage := datalayer.NewMemoryStorage()
	uuidGen := generator.UUIDV4Generator{}
	id, _ := uuidGen.Next()
	artefact := repository.Artefact{
		ID:             id,
		CoverKey:       generator.CoverKey(id),
		KeyFingerprint: "sweep",
		FrameBits:      2080,
		BlockSize:      1024,
		DCTCoeff:       3,
		Alpha:          5.0,
	}
	if err := storage.Put(ctx, artefact.CoverKey, strings.NewReader("cover"), datalayer.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, artefact); err != nil {
		t.Fatal(err)
	}

	sweeper := worker.NewRetentionSweeper(storage, repo, time.Hour)

	t.Run("Fresh artefacts survive a sweep", func(t *testing.T) {
		if _, err := sweeper.Sweep(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.Get(ctx, id); err != nil {
			t.Errorf("fresh artefact removed: %v", err)
		}
	})

	t.Run("Expired artefacts lose their row and blobs", func(t *testing.T) {
		sweeper.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		removed, err := sweeper.Sweep(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if removed < 1 {
			t.Errorf("Sweep() removed %d artefacts", removed)
		}
		if _, err := repo.Get(ctx, id); !errors.Is(err, repository.ErrArtefactNotFound) {
			t.Errorf("Get() error = %v, want ErrArtefactNotFound", err)
		}
		if _, err := storage.Get(ctx, artefact.CoverKey); !errors.Is(err, datalayer.ErrBlobNotFound) {
			t.Errorf("cover still stored: %v", err)
		}
	})
}
