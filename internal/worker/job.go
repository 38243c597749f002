package worker

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// DefaultRetryAfter is how long a received job may stay unacked before a
// receiver hands it out again.
const DefaultRetryAfter = 30 * time.Second

// ErrMalformedJob is returned when a stream message cannot be decoded into an
// EmbedJob.
var ErrMalformedJob = errors.New("malformed embed job")

// EmbedJob asks a worker to hide Ciphertext in the cover stored at CoverKey.
// The ciphertext is produced on the client so plaintext never reaches the
// queue.
type EmbedJob struct {
	ArtefactID     string
	CoverKey       string
	Ciphertext     []byte
	KeyFingerprint string
}

// Delivery is a job handed out by a JobReceiver. ID is the transport's message
// ID and is passed back to Ack.
type Delivery struct {
	ID  string
	Job EmbedJob
}

type JobPublisher interface {
	Publish(ctx context.Context, jobs ...EmbedJob) error
}

// JobReceiver hands out jobs until they are acked. A delivery that is not
// acked within the receiver's retry interval is returned by a later Receive.
type JobReceiver interface {
	Receive(ctx context.Context) ([]Delivery, error)
	Ack(ctx context.Context, ids ...string) error
}

func (j EmbedJob) values() map[string]any {
	return map[string]any{
		"artefactID":     j.ArtefactID,
		"coverKey":       j.CoverKey,
		"ciphertext":     base64.StdEncoding.EncodeToString(j.Ciphertext),
		"keyFingerprint": j.KeyFingerprint,
	}
}

func jobFromValues(values map[string]any) (EmbedJob, error) {
	field := func(name string) (string, error) {
		raw, ok := values[name]
		if !ok {
			return "", fmt.Errorf("%w: missing %s", ErrMalformedJob, name)
		}
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("%w: %s is %T", ErrMalformedJob, name, raw)
		}
		return s, nil
	}

	var job EmbedJob
	var err error
	if job.ArtefactID, err = field("artefactID"); err != nil {
		return EmbedJob{}, err
	}
	if job.CoverKey, err = field("coverKey"); err != nil {
		return EmbedJob{}, err
	}
	if job.KeyFingerprint, err = field("keyFingerprint"); err != nil {
		return EmbedJob{}, err
	}
	encoded, err := field("ciphertext")
	if err != nil {
		return EmbedJob{}, err
	}
	if job.Ciphertext, err = base64.StdEncoding.DecodeString(encoded); err != nil {
		return EmbedJob{}, fmt.Errorf("%w: ciphertext: %w", ErrMalformedJob, err)
	}
	return job, nil
}
