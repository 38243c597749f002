package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/glizzus/sound-cipher/internal/worker"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := t.Context()
	container, err := tcredis.Run(ctx, "redis:7")
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("failed to parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisQueue(t *testing.T) {
	client := startRedis(t)
	ctx := t.Context()

	receiver, err := worker.NewRedisJobReceiver(ctx, client, "jobs", "embedders", "w1")
	if err != nil {
		t.Fatalf("NewRedisJobReceiver() error = %v", err)
	}
	// Creating the group twice is fine.
	if _, err := worker.NewRedisJobReceiver(ctx, client, "jobs", "embedders", "w2"); err != nil {
		t.Fatalf("second NewRedisJobReceiver() error = %v", err)
	}

	publisher := worker.NewRedisJobPublisher(client, "jobs")
	jobs := []worker.EmbedJob{
		{ArtefactID: "a-1", CoverKey: "covers/a-1", Ciphertext: []byte{1, 2, 3}, KeyFingerprint: "f"},
		{ArtefactID: "a-2", CoverKey: "covers/a-2", Ciphertext: []byte{0, 255}, KeyFingerprint: "f"},
	}
	if err := publisher.Publish(ctx, jobs...); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	// A malformed entry is dropped by the receiver.
	if err := client.XAdd(ctx, &redis.XAddArgs{Stream: "jobs", Values: map[string]any{"junk": "1"}}).Err(); err != nil {
		t.Fatal(err)
	}

	deliveries, err := receiver.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	var got []worker.EmbedJob
	var ids []string
	for _, d := range deliveries {
		got = append(got, d.Job)
		ids = append(ids, d.ID)
	}
	if diff := cmp.Diff(jobs, got); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}

	if err := receiver.Ack(ctx, ids...); err != nil {
		t.Fatalf("Ack() error = %v", err)
	}
	pending, err := client.XPending(ctx, "jobs", "embedders").Result()
	if err != nil {
		t.Fatal(err)
	}
	if pending.Count != 0 {
		t.Errorf("%d messages pending after ack", pending.Count)
	}

	idleCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	idle, err := receiver.Receive(idleCtx)
	if err != nil {
		t.Fatalf("Receive() on idle stream error = %v", err)
	}
	if len(idle) != 0 {
		t.Errorf("Receive() on idle stream returned %d deliveries", len(idle))
	}
}

func TestRedisQueueRedeliversUnacked(t *testing.T) {
	client := startRedis(t)
	ctx := t.Context()

	receiver, err := worker.NewRedisJobReceiver(ctx, client, "retry_jobs", "embedders", "w1")
	if err != nil {
		t.Fatalf("NewRedisJobReceiver() error = %v", err)
	}
	receiver = receiver.WithRetryAfter(100 * time.Millisecond)

	job := worker.EmbedJob{ArtefactID: "a-1", CoverKey: "covers/a-1", Ciphertext: []byte{9}, KeyFingerprint: "f"}
	if err := worker.NewRedisJobPublisher(client, "retry_jobs").Publish(ctx, job); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	first, err := receiver.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Receive() returned %d deliveries, want 1", len(first))
	}

	// Left unacked, as Run does after a transient failure.
	time.Sleep(200 * time.Millisecond)

	again, err := receiver.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if diff := cmp.Diff(first, again); diff != "" {
		t.Errorf("redelivery mismatch (-want +got):\n%s", diff)
	}

	if err := receiver.Ack(ctx, again[0].ID); err != nil {
		t.Fatalf("Ack() error = %v", err)
	}
	pending, err := client.XPending(ctx, "retry_jobs", "embedders").Result()
	if err != nil {
		t.Fatal(err)
	}
	if pending.Count != 0 {
		t.Errorf("%d messages pending after ack", pending.Count)
	}
}
