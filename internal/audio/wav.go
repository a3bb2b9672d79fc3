package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

// WAVE format tags
const (
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder reads integer PCM and 32-bit IEEE float WAV files. Other
// encodings are rejected so the loader can hand them to its fallback.
type WAVDecoder struct{}

func (WAVDecoder) Formats() []string {
	return []string{"wav", "wave"}
}

func (WAVDecoder) Decode(ctx context.Context, path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decodeWAV(ctx, f)
}

// ReadWavAsFloat64 reads a PCM WAV file and returns mono, normalized
// samples in the range [-1,1] and the sample rate.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	buf, err := WAVDecoder{}.Decode(context.Background(), path)
	if err != nil {
		return nil, 0, err
	}
	return buf.Samples, buf.SampleRate, nil
}

// wavEncoding returns the format tag of the fmt chunk, resolving
// WAVE_FORMAT_EXTENSIBLE to its sub-format. r is rewound afterwards.
func wavEncoding(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	defer r.Seek(0, io.SeekStart)

	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, fmt.Errorf("invalid WAV file: %w", err)
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("no fmt chunk: %w", err)
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		if ch.Size < 16 {
			return 0, fmt.Errorf("fmt chunk too short: %d bytes", ch.Size)
		}
		fmtData := make([]byte, ch.Size)
		if _, err := io.ReadFull(ch, fmtData); err != nil {
			return 0, fmt.Errorf("reading fmt chunk: %w", err)
		}
		tag := binary.LittleEndian.Uint16(fmtData[0:2])
		if tag == wavFormatExtensible {
			// cbSize, valid bits, channel mask, then the sub-format GUID
			// whose first two bytes are the real tag
			if len(fmtData) < 26 {
				return 0, errors.New("extensible fmt chunk without sub-format")
			}
			tag = binary.LittleEndian.Uint16(fmtData[24:26])
		}
		return tag, nil
	}
}

func decodeWAV(ctx context.Context, r io.ReadSeeker) (*Buffer, error) {
	encoding, err := wavEncoding(r)
	if err != nil {
		return nil, err
	}

	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	channels := int(d.NumChans)
	bitDepth := int(d.BitDepth)
	sampleRate := int(d.SampleRate)
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	var sample func(v int) float64
	switch encoding {
	case wavFormatPCM:
		switch bitDepth {
		case 8, 16, 24, 32:
		default:
			return nil, fmt.Errorf("unsupported bits per sample: %d", bitDepth)
		}
		scale := float64(int(1) << uint(bitDepth-1))
		offset := 0
		if bitDepth == 8 {
			// 8-bit PCM is unsigned
			offset = 128
		}
		sample = func(v int) float64 { return float64(v-offset) / scale }
	case wavFormatFloat:
		if bitDepth != 32 {
			return nil, fmt.Errorf("unsupported float WAV depth: %d bits", bitDepth)
		}
		// the decoder hands back the raw little-endian bits as an int32
		sample = func(v int) float64 { return float64(math.Float32frombits(uint32(v))) }
	default:
		return nil, fmt.Errorf("unsupported WAV encoding 0x%04x", encoding)
	}

	chunk := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, 4096*channels),
		SourceBitDepth: bitDepth,
	}

	var interleaved []float64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := d.PCMBuffer(chunk)
		if err != nil {
			return nil, fmt.Errorf("reading PCM data: %w", err)
		}
		if n == 0 {
			break
		}
		for _, v := range chunk.Data[:n] {
			interleaved = append(interleaved, sample(v))
		}
	}

	return &Buffer{
		Samples:    Downmix(interleaved, channels),
		SampleRate: sampleRate,
	}, nil
}
