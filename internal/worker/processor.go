package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glizzus/sound-cipher/internal/audio"
	"github.com/glizzus/sound-cipher/internal/datalayer"
	"github.com/glizzus/sound-cipher/internal/frame"
	"github.com/glizzus/sound-cipher/internal/generator"
	"github.com/glizzus/sound-cipher/internal/observe"
	"github.com/glizzus/sound-cipher/internal/pipeline"
	"github.com/glizzus/sound-cipher/internal/repository"
	"github.com/glizzus/sound-cipher/internal/stego"
)

type JobHandler interface {
	Handle(ctx context.Context, job EmbedJob) error
}

// jobFailure marks an error that retrying cannot fix. The artefact is marked
// failed and the job is acked.
type jobFailure struct {
	err error
}

func (f *jobFailure) Error() string { return f.err.Error() }
func (f *jobFailure) Unwrap() error { return f.err }

func fail(format string, args ...any) error {
	return &jobFailure{err: fmt.Errorf(format, args...)}
}

// Processor embeds queued ciphertexts into their covers.
type Processor struct {
	storage datalayer.BlobStorage
	repo    repository.ArtefactRepository
	downmix audio.DownmixMode
	metrics *observe.Metrics
}

func NewProcessor(storage datalayer.BlobStorage, repo repository.ArtefactRepository, downmix audio.DownmixMode) *Processor {
	return &Processor{
		storage: storage,
		repo:    repo,
		downmix: downmix,
	}
}

var _ JobHandler = (*Processor)(nil)

// WithMetrics makes p record job outcomes on m.
func (p *Processor) WithMetrics(m *observe.Metrics) *Processor {
	p.metrics = m
	return p
}

// Handle returns an error only for faults worth retrying, such as an
// unreachable store. Problems with the job itself are recorded on the
// artefact.
func (p *Processor) Handle(ctx context.Context, job EmbedJob) error {
	logger := slog.With(slog.String("artefactID", job.ArtefactID))

	artefact, err := p.repo.Get(ctx, job.ArtefactID)
	if errors.Is(err, repository.ErrArtefactNotFound) {
		logger.WarnContext(ctx, "Skipping job for unknown artefact")
		return nil
	}
	if err != nil {
		return err
	}
	if artefact.Status == repository.StatusEmbedded {
		logger.InfoContext(ctx, "Artefact already embedded, skipping redelivery")
		return nil
	}

	start := time.Now()
	stegoKey, sampleRate, err := p.embed(ctx, artefact, job)
	var failure *jobFailure
	if errors.As(err, &failure) {
		logger.ErrorContext(ctx, "Embedding failed", slog.Any("error", err))
		p.metrics.RecordJob(ctx, observe.OutcomeFailed, time.Since(start), artefact.FrameBits)
		return p.repo.MarkFailed(ctx, artefact.ID, failure.Error())
	}
	if err != nil {
		p.metrics.RecordJob(ctx, observe.OutcomeRetry, time.Since(start), artefact.FrameBits)
		return err
	}

	if err := p.repo.MarkEmbedded(ctx, artefact.ID, stegoKey, sampleRate); err != nil {
		p.metrics.RecordJob(ctx, observe.OutcomeRetry, time.Since(start), artefact.FrameBits)
		return err
	}
	p.metrics.RecordJob(ctx, observe.OutcomeEmbedded, time.Since(start), artefact.FrameBits)
	logger.InfoContext(
		ctx,
		"Embedded ciphertext",
		slog.String("stegoKey", stegoKey),
		slog.Int("frameBits", artefact.FrameBits),
		slog.Int("sampleRate", sampleRate),
	)
	return nil
}

func (p *Processor) embed(ctx context.Context, artefact repository.Artefact, job EmbedJob) (string, int, error) {
	if job.KeyFingerprint != artefact.KeyFingerprint {
		return "", 0, fail("job key fingerprint %s does not match artefact %s", job.KeyFingerprint, artefact.KeyFingerprint)
	}
	if got := frame.Bits(len(job.Ciphertext)); got != artefact.FrameBits {
		return "", 0, fail("job frame is %d bits, artefact expects %d", got, artefact.FrameBits)
	}
	params := stego.Params{
		BlockSize: artefact.BlockSize,
		Coeff:     artefact.DCTCoeff,
		Alpha:     artefact.Alpha,
	}
	if err := params.Validate(); err != nil {
		return "", 0, &jobFailure{err: err}
	}

	data, err := p.storage.Get(ctx, job.CoverKey)
	if errors.Is(err, datalayer.ErrBlobNotFound) {
		return "", 0, &jobFailure{err: err}
	}
	if err != nil {
		return "", 0, err
	}

	cover, err := audio.Load(bytes.NewReader(data), p.downmix)
	if err != nil {
		return "", 0, fail("failed to decode cover: %w", err)
	}

	stegoSignal, err := pipeline.SealCiphertext(job.Ciphertext, cover, pipeline.Options{Params: params})
	if err != nil {
		return "", 0, &jobFailure{err: err}
	}

	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, stegoSignal, audio.StegoBits); err != nil {
		return "", 0, fail("failed to encode stego audio: %w", err)
	}

	key := generator.StegoKey(artefact.ID)
	size := int64(buf.Len())
	if err := p.storage.Put(ctx, key, &buf, datalayer.PutOptions{Size: size, ContentType: "audio/wav"}); err != nil {
		return "", 0, err
	}
	return key, stegoSignal.SampleRate, nil
}

// Run feeds deliveries from receiver to handler until ctx is cancelled.
// Deliveries whose handling errors are left unacked; the receiver hands them
// out again once its retry interval has passed.
func Run(ctx context.Context, receiver JobReceiver, handler JobHandler) error {
	for {
		deliveries, err := receiver.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to receive jobs: %w", err)
		}

		for _, d := range deliveries {
			if err := handler.Handle(ctx, d.Job); err != nil {
				slog.ErrorContext(
					ctx,
					"Failed to handle job",
					slog.String("messageID", d.ID),
					slog.String("artefactID", d.Job.ArtefactID),
					slog.Any("error", err),
				)
				continue
			}
			if err := receiver.Ack(ctx, d.ID); err != nil {
				return err
			}
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
