package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/jonas747/ogg"
	"layeh.com/gopus"
)

const (
	// Opus always decodes at 48 kHz regardless of the input rate in OpusHead.
	opusSampleRate = 48000
	// 120 ms at 48 kHz, the longest packet Opus allows.
	opusMaxFrameSize = 5760
)

var ErrNotOggOpus = errors.New("not an Ogg Opus stream")

type opusHead struct {
	Channels int
	PreSkip  int
}

func parseOpusHead(packet []byte) (*opusHead, error) {
	if len(packet) < 19 || string(packet[:8]) != "OpusHead" {
		return nil, ErrNotOggOpus
	}
	head := &opusHead{
		Channels: int(packet[9]),
		PreSkip:  int(binary.LittleEndian.Uint16(packet[10:12])),
	}
	mapping := packet[18]
	if mapping != 0 || head.Channels < 1 || head.Channels > 2 {
		return nil, fmt.Errorf("%w: %d channels with mapping family %d", ErrUnsupportedFormat, head.Channels, mapping)
	}
	return head, nil
}

// DecodeOggOpus decodes an Ogg Opus stream into 48 kHz float samples with the
// encoder pre-skip removed. Opus is lossy, so it is only suitable as a cover.
func DecodeOggOpus(r io.Reader) (*Clip, error) {
	decoder := ogg.NewPacketDecoder(ogg.NewDecoder(r))

	packet, _, err := decoder.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotOggOpus, err)
	}
	head, err := parseOpusHead(packet)
	if err != nil {
		return nil, err
	}

	// The second packet is OpusTags, which carries nothing we need.
	if _, _, err := decoder.Decode(); err != nil {
		return nil, fmt.Errorf("%w: missing comment header: %v", ErrNotOggOpus, err)
	}

	opusDecoder, err := gopus.NewDecoder(opusSampleRate, head.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	clip := &Clip{Channels: head.Channels, SampleRate: opusSampleRate}
	skip := head.PreSkip * head.Channels
	for {
		packet, _, err := decoder.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("failed to read ogg packet: %w", err)
		}
		if len(packet) == 0 {
			continue
		}

		pcm, err := opusDecoder.Decode(packet, opusMaxFrameSize, false)
		if err != nil {
			return nil, fmt.Errorf("failed to decode opus packet: %w", err)
		}
		if skip > 0 {
			n := min(skip, len(pcm))
			pcm = pcm[n:]
			skip -= n
		}
		for _, v := range pcm {
			clip.Samples = append(clip.Samples, float64(v)/(1<<15))
		}
	}

	if len(clip.Samples) == 0 {
		return nil, ErrNoData
	}
	return clip, nil
}
