package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/glizzus/sound-cipher/internal/audio"
	"github.com/glizzus/sound-cipher/internal/datalayer"
	"github.com/glizzus/sound-cipher/internal/envelope"
	"github.com/glizzus/sound-cipher/internal/frame"
	"github.com/glizzus/sound-cipher/internal/generator"
	"github.com/glizzus/sound-cipher/internal/pipeline"
	"github.com/glizzus/sound-cipher/internal/repository"
	"github.com/glizzus/sound-cipher/internal/stego"
)

var (
	ErrNotReady    = errors.New("artefact is not embedded yet")
	ErrEmbedFailed = errors.New("artefact embedding failed")
	ErrKeyMismatch = errors.New("key does not match the artefact")
)

// Client is the sending and receiving side of the queue. Encryption and
// decryption happen here, so neither plaintext nor private keys reach the
// worker.
type Client struct {
	storage   datalayer.BlobStorage
	repo      repository.ArtefactRepository
	publisher JobPublisher
	ids       generator.Generator[string]
	downmix   audio.DownmixMode
}

func NewClient(
	storage datalayer.BlobStorage,
	repo repository.ArtefactRepository,
	publisher JobPublisher,
	ids generator.Generator[string],
	downmix audio.DownmixMode,
) *Client {
	return &Client{
		storage:   storage,
		repo:      repo,
		publisher: publisher,
		ids:       ids,
		downmix:   downmix,
	}
}

func coverContentType(cover []byte) string {
	if bytes.HasPrefix(cover, []byte("OggS")) {
		return "audio/ogg"
	}
	return "audio/wav"
}

// Submit encrypts message, uploads the cover and queues an embed job. The
// cover is decoded locally first so a cover that is too short is rejected
// before anything is stored.
func (c *Client) Submit(ctx context.Context, cover []byte, message string, publicPEM []byte, opts pipeline.Options) (repository.Artefact, error) {
	if err := envelope.CheckMessage(message, opts.MaxMessageBytes); err != nil {
		return repository.Artefact{}, err
	}
	signal, err := audio.Load(bytes.NewReader(cover), c.downmix)
	if err != nil {
		return repository.Artefact{}, fmt.Errorf("failed to decode cover: %w", err)
	}
	report, err := pipeline.Capacity(signal, publicPEM, opts)
	if err != nil {
		return repository.Artefact{}, err
	}
	if !report.Fits() {
		return repository.Artefact{}, &stego.CapacityError{Required: report.RequiredBits, Available: report.AvailableBits}
	}

	ciphertext, err := envelope.Encrypt(message, publicPEM)
	if err != nil {
		return repository.Artefact{}, err
	}
	fingerprint, err := envelope.Fingerprint(publicPEM)
	if err != nil {
		return repository.Artefact{}, err
	}

	id, err := c.ids.Next()
	if err != nil {
		return repository.Artefact{}, fmt.Errorf("failed to generate artefact ID: %w", err)
	}
	coverKey := generator.CoverKey(id)
	if err := c.storage.Put(ctx, coverKey, bytes.NewReader(cover), datalayer.PutOptions{
		Size:        int64(len(cover)),
		ContentType: coverContentType(cover),
	}); err != nil {
		return repository.Artefact{}, err
	}

	artefact := repository.Artefact{
		ID:             id,
		CoverKey:       coverKey,
		KeyFingerprint: fingerprint,
		Status:         repository.StatusPending,
		FrameBits:      frame.Bits(len(ciphertext)),
		BlockSize:      opts.Params.BlockSize,
		DCTCoeff:       opts.Params.Coeff,
		Alpha:          opts.Params.Alpha,
	}
	if err := c.repo.Save(ctx, artefact); err != nil {
		return repository.Artefact{}, err
	}

	if err := c.publisher.Publish(ctx, EmbedJob{
		ArtefactID:     id,
		CoverKey:       coverKey,
		Ciphertext:     ciphertext,
		KeyFingerprint: fingerprint,
	}); err != nil {
		return repository.Artefact{}, err
	}

	slog.InfoContext(ctx, "Submitted embed job", slog.String("artefactID", id), slog.Int("frameBits", artefact.FrameBits))
	return artefact, nil
}

// Fetch downloads the stego file of an embedded artefact and decrypts the
// message with privatePEM, using the codec parameters the artefact was
// embedded with.
func (c *Client) Fetch(ctx context.Context, id string, privatePEM []byte) (string, error) {
	artefact, err := c.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	switch artefact.Status {
	case repository.StatusEmbedded:
	case repository.StatusFailed:
		return "", fmt.Errorf("%w: %s", ErrEmbedFailed, artefact.Error)
	default:
		return "", fmt.Errorf("%w: status %s", ErrNotReady, artefact.Status)
	}

	fingerprint, err := envelope.Fingerprint(privatePEM)
	if err != nil {
		return "", err
	}
	if fingerprint != artefact.KeyFingerprint {
		return "", fmt.Errorf("%w: artefact %s was sealed for %s", ErrKeyMismatch, id, artefact.KeyFingerprint)
	}

	data, err := c.storage.Get(ctx, artefact.StegoKey)
	if err != nil {
		return "", err
	}
	signal, err := audio.Load(bytes.NewReader(data), c.downmix)
	if err != nil {
		return "", fmt.Errorf("failed to decode stego audio: %w", err)
	}

	opts := pipeline.Options{Params: stego.Params{
		BlockSize: artefact.BlockSize,
		Coeff:     artefact.DCTCoeff,
		Alpha:     artefact.Alpha,
	}}
	return pipeline.Open(signal, privatePEM, opts)
}
