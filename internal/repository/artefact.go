package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusEmbedded Status = "embedded"
	StatusFailed   Status = "failed"
)

// ErrArtefactNotFound is returned when no artefact has the requested ID.
var ErrArtefactNotFound = errors.New("artefact not found")

// Artefact tracks one submitted message from upload of its cover to the
// finished stego file. The codec parameters are recorded so the receiver can
// extract with the same values the worker embedded with.
type Artefact struct {
	ID             string
	CoverKey       string
	StegoKey       string
	KeyFingerprint string
	Status         Status
	FrameBits      int
	BlockSize      int
	DCTCoeff       int
	Alpha          float64
	SampleRate     int
	Error          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ArtefactPersister interface {
	Save(ctx context.Context, a Artefact) error
	MarkEmbedded(ctx context.Context, id, stegoKey string, sampleRate int) error
	MarkFailed(ctx context.Context, id string, reason string) error
	Delete(ctx context.Context, id string) error
}

type ArtefactFinder interface {
	Get(ctx context.Context, id string) (Artefact, error)
	List(ctx context.Context, limit int) ([]Artefact, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]Artefact, error)
}

type ArtefactRepository interface {
	ArtefactPersister
	ArtefactFinder
}

type PostgresArtefactRepository struct {
	db *pgxpool.Pool
}

func NewPostgresArtefactRepository(db *pgxpool.Pool) *PostgresArtefactRepository {
	return &PostgresArtefactRepository{db: db}
}

var _ ArtefactRepository = (*PostgresArtefactRepository)(nil)

func artefactToRowParams(a Artefact) []any {
	status := a.Status
	if status == "" {
		status = StatusPending
	}
	return []any{
		a.ID,
		a.CoverKey,
		a.StegoKey,
		a.KeyFingerprint,
		string(status),
		a.FrameBits,
		a.BlockSize,
		a.DCTCoeff,
		a.Alpha,
		a.SampleRate,
		a.Error,
	}
}

const artefactColumns = `id, cover_key, stego_key, key_fingerprint, status, frame_bits,
	block_size, dct_coeff, alpha, sample_rate, error, created_at, updated_at`

func scanArtefact(row pgx.Row) (Artefact, error) {
	var a Artefact
	var status string
	err := row.Scan(
		&a.ID,
		&a.CoverKey,
		&a.StegoKey,
		&a.KeyFingerprint,
		&status,
		&a.FrameBits,
		&a.BlockSize,
		&a.DCTCoeff,
		&a.Alpha,
		&a.SampleRate,
		&a.Error,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	a.Status = Status(status)
	return a, err
}

func (r *PostgresArtefactRepository) Save(ctx context.Context, a Artefact) error {
	const query = `
	INSERT INTO artefacts (id, cover_key, stego_key, key_fingerprint, status, frame_bits,
		block_size, dct_coeff, alpha, sample_rate, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		cover_key = EXCLUDED.cover_key,
		stego_key = EXCLUDED.stego_key,
		key_fingerprint = EXCLUDED.key_fingerprint,
		status = EXCLUDED.status,
		frame_bits = EXCLUDED.frame_bits,
		block_size = EXCLUDED.block_size,
		dct_coeff = EXCLUDED.dct_coeff,
		alpha = EXCLUDED.alpha,
		sample_rate = EXCLUDED.sample_rate,
		error = EXCLUDED.error,
		updated_at = now()
	`

	if _, err := r.db.Exec(ctx, query, artefactToRowParams(a)...); err != nil {
		return fmt.Errorf("failed to save artefact: %w", err)
	}
	return nil
}

func (r *PostgresArtefactRepository) updateStatus(ctx context.Context, id string, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update artefact %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrArtefactNotFound, id)
	}
	return nil
}

func (r *PostgresArtefactRepository) MarkEmbedded(ctx context.Context, id, stegoKey string, sampleRate int) error {
	const query = `
	UPDATE artefacts
	SET status = 'embedded', stego_key = $2, sample_rate = $3, error = '', updated_at = now()
	WHERE id = $1
	`
	return r.updateStatus(ctx, id, query, stegoKey, sampleRate)
}

func (r *PostgresArtefactRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	const query = `
	UPDATE artefacts
	SET status = 'failed', error = $2, updated_at = now()
	WHERE id = $1
	`
	return r.updateStatus(ctx, id, query, reason)
}

func (r *PostgresArtefactRepository) Get(ctx context.Context, id string) (Artefact, error) {
	query := `SELECT ` + artefactColumns + ` FROM artefacts WHERE id = $1`

	a, err := scanArtefact(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Artefact{}, fmt.Errorf("%w: %s", ErrArtefactNotFound, id)
	}
	if err != nil {
		return Artefact{}, fmt.Errorf("failed to get artefact %s: %w", id, err)
	}
	return a, nil
}

func (r *PostgresArtefactRepository) collect(ctx context.Context, query string, args ...any) ([]Artefact, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artefacts: %w", err)
	}
	defer rows.Close()

	var out []Artefact
	for rows.Next() {
		a, err := scanArtefact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artefact: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artefacts: %w", err)
	}
	return out, nil
}

// List returns the newest artefacts first.
func (r *PostgresArtefactRepository) List(ctx context.Context, limit int) ([]Artefact, error) {
	query := `SELECT ` + artefactColumns + ` FROM artefacts ORDER BY created_at DESC, id LIMIT $1`
	return r.collect(ctx, query, limit)
}

func (r *PostgresArtefactRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]Artefact, error) {
	query := `SELECT ` + artefactColumns + ` FROM artefacts WHERE created_at < $1 ORDER BY created_at`
	return r.collect(ctx, query, cutoff)
}

func (r *PostgresArtefactRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM artefacts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete artefact %s: %w", id, err)
	}
	return nil
}
