package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisJobPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisJobPublisher(client *redis.Client, stream string) *RedisJobPublisher {
	return &RedisJobPublisher{client: client, stream: stream}
}

var _ JobPublisher = (*RedisJobPublisher)(nil)

func (p *RedisJobPublisher) Publish(ctx context.Context, jobs ...EmbedJob) error {
	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, job := range jobs {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: p.stream,
				Values: job.values(),
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish embed jobs: %w", err)
	}
	return nil
}

// RedisJobReceiver reads jobs through a consumer group so several workers can
// share one stream. Deliveries left unacked for longer than the retry interval
// are claimed again, by this consumer or any other in the group.
type RedisJobReceiver struct {
	client     *redis.Client
	stream     string
	group      string
	consumer   string
	block      time.Duration
	count      int64
	retryAfter time.Duration
}

// NewRedisJobReceiver creates the consumer group (and the stream) if they do
// not exist yet.
func NewRedisJobReceiver(ctx context.Context, client *redis.Client, stream, group, consumer string) (*RedisJobReceiver, error) {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group %s: %w", group, err)
	}

	return &RedisJobReceiver{
		client:     client,
		stream:     stream,
		group:      group,
		consumer:   consumer,
		block:      5 * time.Second,
		count:      10,
		retryAfter: DefaultRetryAfter,
	}, nil
}

// WithRetryAfter sets how long a delivery must stay unacked before Receive
// hands it out again.
func (r *RedisJobReceiver) WithRetryAfter(d time.Duration) *RedisJobReceiver {
	r.retryAfter = d
	return r
}

var _ JobReceiver = (*RedisJobReceiver)(nil)

// Receive first reclaims deliveries that have been pending longer than the
// retry interval. Otherwise it blocks for up to five seconds on new messages
// and returns no deliveries when the stream stays idle. Messages that fail to
// decode are acked and dropped.
func (r *RedisJobReceiver) Receive(ctx context.Context) ([]Delivery, error) {
	stale, _, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   r.stream,
		Group:    r.group,
		Consumer: r.consumer,
		MinIdle:  r.retryAfter,
		Start:    "0-0",
		Count:    r.count,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim stale jobs on %s: %w", r.stream, err)
	}
	if len(stale) > 0 {
		slog.InfoContext(ctx, "Retrying unacked jobs", slog.String("stream", r.stream), slog.Int("count", len(stale)))
		return r.deliveries(ctx, stale)
	}

	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, ">"},
		Count:    r.count,
		Block:    r.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from stream %s: %w", r.stream, err)
	}

	var messages []redis.XMessage
	for _, stream := range streams {
		messages = append(messages, stream.Messages...)
	}
	return r.deliveries(ctx, messages)
}

func (r *RedisJobReceiver) deliveries(ctx context.Context, messages []redis.XMessage) ([]Delivery, error) {
	var deliveries []Delivery
	for _, msg := range messages {
		job, err := jobFromValues(msg.Values)
		if err != nil {
			slog.ErrorContext(ctx, "Dropping malformed job", slog.String("messageID", msg.ID), slog.Any("error", err))
			if ackErr := r.Ack(ctx, msg.ID); ackErr != nil {
				return nil, ackErr
			}
			continue
		}
		deliveries = append(deliveries, Delivery{ID: msg.ID, Job: job})
	}
	return deliveries, nil
}

func (r *RedisJobReceiver) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.client.XAck(ctx, r.stream, r.group, ids...).Err(); err != nil {
		return fmt.Errorf("failed to ack %v: %w", ids, err)
	}
	return nil
}
