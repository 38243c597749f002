package worker

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"
	"time"
)

type memoryPending struct {
	seq         int
	delivery    Delivery
	deliveredAt time.Time
}

// MemoryQueue is an in-process JobPublisher and JobReceiver. Published jobs
// stay pending until acked and are handed out again once they have been
// pending for the retry interval.
type MemoryQueue struct {
	mu         sync.Mutex
	next       int
	queued     []memoryPending
	pending    map[string]*memoryPending
	retryAfter time.Duration
	notify     chan struct{}
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		pending:    make(map[string]*memoryPending),
		retryAfter: DefaultRetryAfter,
		notify:     make(chan struct{}, 1),
	}
}

var (
	_ JobPublisher = (*MemoryQueue)(nil)
	_ JobReceiver  = (*MemoryQueue)(nil)
)

// WithRetryAfter sets how long a delivery must stay unacked before Receive
// hands it out again.
func (q *MemoryQueue) WithRetryAfter(d time.Duration) *MemoryQueue {
	q.mu.Lock()
	q.retryAfter = d
	q.mu.Unlock()
	return q
}

func (q *MemoryQueue) Publish(ctx context.Context, jobs ...EmbedJob) error {
	q.mu.Lock()
	for _, job := range jobs {
		q.next++
		q.queued = append(q.queued, memoryPending{
			seq:      q.next,
			delivery: Delivery{ID: strconv.Itoa(q.next), Job: job},
		})
	}
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Receive returns stale pending jobs if there are any, otherwise it waits
// until a job is published, a pending job goes stale or ctx is done.
func (q *MemoryQueue) Receive(ctx context.Context) ([]Delivery, error) {
	for {
		q.mu.Lock()
		now := time.Now()
		batch := q.stale(now)
		if len(batch) == 0 {
			batch = q.queued
			q.queued = nil
		}
		if len(batch) > 0 {
			out := make([]Delivery, 0, len(batch))
			for _, p := range batch {
				p.deliveredAt = now
				q.pending[p.delivery.ID] = &p
				out = append(out, p.delivery)
			}
			q.mu.Unlock()
			return out, nil
		}
		wait, ok := q.nextRetry(now)
		q.mu.Unlock()

		var retry <-chan time.Time
		var timer *time.Timer
		if ok {
			timer = time.NewTimer(wait)
			retry = timer.C
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, ctx.Err()
		case <-q.notify:
		case <-retry:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// stale returns pending jobs past the retry interval in publish order.
func (q *MemoryQueue) stale(now time.Time) []memoryPending {
	var out []memoryPending
	for _, p := range q.pending {
		if now.Sub(p.deliveredAt) >= q.retryAfter {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b memoryPending) int { return cmp.Compare(a.seq, b.seq) })
	return out
}

func (q *MemoryQueue) nextRetry(now time.Time) (time.Duration, bool) {
	var wait time.Duration
	found := false
	for _, p := range q.pending {
		left := q.retryAfter - now.Sub(p.deliveredAt)
		if !found || left < wait {
			wait, found = left, true
		}
	}
	return wait, found
}

func (q *MemoryQueue) Ack(ctx context.Context, ids ...string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range ids {
		delete(q.pending, id)
	}
	return nil
}

// Pending reports how many received jobs have not been acked.
func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
