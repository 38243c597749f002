package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/glizzus/sound-cipher/internal/datalayer"
	"github.com/glizzus/sound-cipher/internal/observe"
	"github.com/glizzus/sound-cipher/internal/repository"
)

// RetentionSweeper removes artefacts older than a retention window together
// with their blobs.
type RetentionSweeper struct {
	storage   datalayer.BlobStorage
	repo      repository.ArtefactRepository
	retention time.Duration
	metrics   *observe.Metrics
	Now       func() time.Time
}

func NewRetentionSweeper(storage datalayer.BlobStorage, repo repository.ArtefactRepository, retention time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		storage:   storage,
		repo:      repo,
		retention: retention,
		Now:       time.Now,
	}
}

// WithMetrics makes s count removed artefacts on m.
func (s *RetentionSweeper) WithMetrics(m *observe.Metrics) *RetentionSweeper {
	s.metrics = m
	return s
}

// Sweep deletes expired artefacts and returns how many rows were removed. A
// row is kept when one of its blobs could not be deleted, so the next sweep
// retries it.
func (s *RetentionSweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.Now().Add(-s.retention)
	expired, err := s.repo.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var errs []error
	removed := 0
	for _, a := range expired {
		if err := s.remove(ctx, a); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	s.metrics.RecordSweep(ctx, removed)
	slog.InfoContext(
		ctx,
		"Retention sweep finished",
		slog.Time("cutoff", cutoff),
		slog.Int("expired", len(expired)),
		slog.Int("removed", removed),
	)
	return removed, errors.Join(errs...)
}

func (s *RetentionSweeper) remove(ctx context.Context, a repository.Artefact) error {
	for _, key := range []string{a.CoverKey, a.StegoKey} {
		if key == "" {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, datalayer.ErrBlobNotFound) {
			return err
		}
	}
	return s.repo.Delete(ctx, a.ID)
}

// Run is shaped for schedule.Every.
func (s *RetentionSweeper) Run(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		slog.ErrorContext(ctx, "Retention sweep failed", slog.Any("error", err))
	}
}
