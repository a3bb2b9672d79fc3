package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MPEG-1/2 Layer III. go-mp3 always yields 16-bit
// little-endian stereo, which is folded to mono here.
type MP3Decoder struct{}

func (MP3Decoder) Formats() []string {
	return []string{"mp3"}
}

func (MP3Decoder) Decode(ctx context.Context, path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("parsing MP3 stream: %w", err)
	}

	const frameBytes = 4 // 2 channels x int16
	chunk := make([]byte, 4096*frameBytes)
	var mono []float64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := io.ReadFull(d, chunk)
		usable := n - n%frameBytes
		for i := 0; i < usable; i += frameBytes {
			l := int16(binary.LittleEndian.Uint16(chunk[i:]))
			r := int16(binary.LittleEndian.Uint16(chunk[i+2:]))
			mono = append(mono, (float64(l)+float64(r))/2/32768)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding MP3 frames: %w", err)
		}
	}

	return &Buffer{Samples: mono, SampleRate: d.SampleRate()}, nil
}
