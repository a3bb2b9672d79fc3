package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC streams frame by frame.
type FLACDecoder struct{}

func (FLACDecoder) Formats() []string {
	return []string{"flac"}
}

func (FLACDecoder) Decode(ctx context.Context, path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("parsing FLAC stream: %w", err)
	}
	info := stream.Info
	if info == nil {
		return nil, fmt.Errorf("missing FLAC stream info: %s", path)
	}

	channels := int(info.NChannels)
	scale := float64(int(1) << uint(info.BitsPerSample-1))
	mono := make([]float64, 0, info.NSamples)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding FLAC frame: %w", err)
		}

		for i := 0; i < len(frame.Subframes[0].Samples); i++ {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			mono = append(mono, sum/float64(channels)/scale)
		}
	}

	return &Buffer{Samples: mono, SampleRate: int(info.SampleRate)}, nil
}
