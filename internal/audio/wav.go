package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	wavFormatPCM        = 0x0001
	wavFormatIEEEFloat  = 0x0003
	wavFormatExtensible = 0xFFFE
)

var (
	ErrNotWAV            = errors.New("not a RIFF/WAVE stream")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoData            = errors.New("no audio data")
)

type wavFormat struct {
	Tag           uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// DecodeWAV reads a RIFF/WAVE stream. Integer PCM of 8, 16, 24 and 32 bits and
// IEEE float of 32 and 64 bits are supported, including the extensible header.
func DecodeWAV(r io.Reader) (*Clip, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var format *wavFormat
	for {
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrNoData
			}
			return nil, err
		}
		id := string(header[0:4])
		size := binary.LittleEndian.Uint32(header[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			f, err := parseFormat(body)
			if err != nil {
				return nil, err
			}
			format = f
		case "data":
			if format == nil {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrUnsupportedFormat)
			}
			// Streams written before their length was known carry a bogus size,
			// so read what is there and keep whole frames only.
			data, err := io.ReadAll(io.LimitReader(r, int64(size)))
			if err != nil {
				return nil, fmt.Errorf("failed to read data chunk: %w", err)
			}
			return decodeSamples(format, data)
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return nil, fmt.Errorf("failed to skip %q chunk: %w", id, err)
			}
		}

		if size%2 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
		}
	}
}

func parseFormat(body []byte) (*wavFormat, error) {
	if len(body) < 16 {
		return nil, fmt.Errorf("%w: fmt chunk of %d bytes", ErrUnsupportedFormat, len(body))
	}
	f := &wavFormat{
		Tag:           binary.LittleEndian.Uint16(body[0:2]),
		Channels:      binary.LittleEndian.Uint16(body[2:4]),
		SampleRate:    binary.LittleEndian.Uint32(body[4:8]),
		ByteRate:      binary.LittleEndian.Uint32(body[8:12]),
		BlockAlign:    binary.LittleEndian.Uint16(body[12:14]),
		BitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
	}
	if f.Tag == wavFormatExtensible {
		// cbSize(2) validBits(2) channelMask(4) subFormat GUID(16)
		if len(body) < 40 {
			return nil, fmt.Errorf("%w: truncated extensible fmt chunk", ErrUnsupportedFormat)
		}
		f.Tag = binary.LittleEndian.Uint16(body[24:26])
	}

	if f.Channels == 0 {
		return nil, fmt.Errorf("%w: zero channels", ErrUnsupportedFormat)
	}
	if f.SampleRate == 0 {
		return nil, fmt.Errorf("%w: zero sample rate", ErrUnsupportedFormat)
	}
	switch {
	case f.Tag == wavFormatPCM && (f.BitsPerSample == 8 || f.BitsPerSample == 16 || f.BitsPerSample == 24 || f.BitsPerSample == 32):
	case f.Tag == wavFormatIEEEFloat && (f.BitsPerSample == 32 || f.BitsPerSample == 64):
	default:
		return nil, fmt.Errorf("%w: format tag 0x%04x with %d bits per sample", ErrUnsupportedFormat, f.Tag, f.BitsPerSample)
	}
	return f, nil
}

func decodeSamples(f *wavFormat, data []byte) (*Clip, error) {
	width := int(f.BitsPerSample) / 8
	frameBytes := width * int(f.Channels)
	n := len(data) / frameBytes * int(f.Channels)
	if n == 0 {
		return nil, ErrNoData
	}

	samples := make([]float64, n)
	for i := range samples {
		b := data[i*width : (i+1)*width]
		switch {
		case f.Tag == wavFormatIEEEFloat && width == 4:
			samples[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case f.Tag == wavFormatIEEEFloat && width == 8:
			samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		case width == 1:
			samples[i] = (float64(b[0]) - 128) / 128
		case width == 2:
			samples[i] = float64(int16(binary.LittleEndian.Uint16(b))) / (1 << 15)
		case width == 3:
			v := int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
			samples[i] = float64(v) / (1 << 23)
		case width == 4:
			samples[i] = float64(int32(binary.LittleEndian.Uint32(b))) / (1 << 31)
		}
	}

	return &Clip{
		Samples:    samples,
		Channels:   int(f.Channels),
		SampleRate: int(f.SampleRate),
	}, nil
}

// StegoBits is the sample width stego audio is written with. 64-bit float
// samples hold float64 values exactly, so the embedded coefficients survive.
const StegoBits = 64

// EncodeWAV writes s as a mono IEEE float WAV. bits selects 64-bit samples,
// which store float64 values exactly, or 32-bit samples.
func EncodeWAV(w io.Writer, s Signal, bits int) error {
	if bits != 32 && bits != 64 {
		return fmt.Errorf("%w: float WAV with %d bits per sample", ErrUnsupportedFormat, bits)
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, s.SampleRate)
	}

	width := bits / 8
	dataLen := uint64(len(s.Samples)) * uint64(width)
	// RIFF(4) + fmt(8+18) + fact(8+4) + data(8+n)
	riffLen := 4 + 26 + 12 + 8 + dataLen + dataLen%2
	if riffLen > math.MaxUint32 {
		return fmt.Errorf("signal of %d samples is too long for a WAV file", len(s.Samples))
	}

	header := make([]byte, 0, 58)
	header = append(header, "RIFF"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(riffLen))
	header = append(header, "WAVE"...)

	header = append(header, "fmt "...)
	header = binary.LittleEndian.AppendUint32(header, 18)
	header = binary.LittleEndian.AppendUint16(header, wavFormatIEEEFloat)
	header = binary.LittleEndian.AppendUint16(header, 1)
	header = binary.LittleEndian.AppendUint32(header, uint32(s.SampleRate))
	header = binary.LittleEndian.AppendUint32(header, uint32(s.SampleRate*width))
	header = binary.LittleEndian.AppendUint16(header, uint16(width))
	header = binary.LittleEndian.AppendUint16(header, uint16(bits))
	header = binary.LittleEndian.AppendUint16(header, 0)

	header = append(header, "fact"...)
	header = binary.LittleEndian.AppendUint32(header, 4)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(s.Samples)))

	header = append(header, "data"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataLen))

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(header); err != nil {
		return err
	}
	var buf [8]byte
	for _, v := range s.Samples {
		if bits == 64 {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		} else {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(v)))
		}
		if _, err := bw.Write(buf[:width]); err != nil {
			return err
		}
	}
	if dataLen%2 == 1 {
		if err := bw.WriteByte(0); err != nil {
			return err
		}
	}
	return bw.Flush()
}
