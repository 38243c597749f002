package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryArtefactRepository keeps artefacts in a map. Now supplies timestamps
// and may be replaced in tests.
type MemoryArtefactRepository struct {
	mu        sync.Mutex
	artefacts map[string]Artefact
	Now       func() time.Time
}

func NewMemoryArtefactRepository() *MemoryArtefactRepository {
	return &MemoryArtefactRepository{
		artefacts: make(map[string]Artefact),
		Now:       time.Now,
	}
}

var _ ArtefactRepository = (*MemoryArtefactRepository)(nil)

func (r *MemoryArtefactRepository) Save(ctx context.Context, a Artefact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Now()
	if a.Status == "" {
		a.Status = StatusPending
	}
	if prev, ok := r.artefacts[a.ID]; ok {
		a.CreatedAt = prev.CreatedAt
	} else if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	r.artefacts[a.ID] = a
	return nil
}

func (r *MemoryArtefactRepository) update(id string, fn func(*Artefact)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artefacts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrArtefactNotFound, id)
	}
	fn(&a)
	a.UpdatedAt = r.Now()
	r.artefacts[id] = a
	return nil
}

func (r *MemoryArtefactRepository) MarkEmbedded(ctx context.Context, id, stegoKey string, sampleRate int) error {
	return r.update(id, func(a *Artefact) {
		a.Status = StatusEmbedded
		a.StegoKey = stegoKey
		a.SampleRate = sampleRate
		a.Error = ""
	})
}

func (r *MemoryArtefactRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.update(id, func(a *Artefact) {
		a.Status = StatusFailed
		a.Error = reason
	})
}

func (r *MemoryArtefactRepository) Get(ctx context.Context, id string) (Artefact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artefacts[id]
	if !ok {
		return Artefact{}, fmt.Errorf("%w: %s", ErrArtefactNotFound, id)
	}
	return a, nil
}

func (r *MemoryArtefactRepository) sorted(keep func(Artefact) bool) []Artefact {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Artefact
	for _, a := range r.artefacts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryArtefactRepository) List(ctx context.Context, limit int) ([]Artefact, error) {
	all := r.sorted(func(Artefact) bool { return true })
	// newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryArtefactRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]Artefact, error) {
	return r.sorted(func(a Artefact) bool { return a.CreatedAt.Before(cutoff) }), nil
}

func (r *MemoryArtefactRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.artefacts, id)
	return nil
}
