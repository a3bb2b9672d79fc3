// Package audio decodes audio files into mono float64 sample buffers.
package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/himanishpuri/SoundAlike/pkg/models"
)

// Buffer is a mono signal in [-1, 1] with its sample rate.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Decoder turns one file into a Buffer. Formats lists the lower-case
// extensions (without the dot) it handles.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Buffer, error)
	Formats() []string
}

// Loader dispatches files to decoders by extension. Files nobody claims,
// or that their native decoder rejects, go to the fallback when one is set.
type Loader struct {
	decoders map[string]Decoder
	fallback Decoder
}

type LoaderOption func(*Loader)

// WithDecoder registers an extra decoder, replacing any earlier one for the
// same extensions.
func WithDecoder(d Decoder) LoaderOption {
	return func(l *Loader) {
		l.Register(d)
	}
}

// WithFallback sets the catch-all decoder. Pass nil to disable it.
func WithFallback(d Decoder) LoaderOption {
	return func(l *Loader) {
		l.fallback = d
	}
}

// NewLoader returns a loader with the WAV, MP3 and FLAC decoders and an
// ffmpeg fallback at the default conversion settings.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{decoders: make(map[string]Decoder)}
	l.Register(WAVDecoder{})
	l.Register(MP3Decoder{})
	l.Register(FLACDecoder{})
	l.fallback = NewFFmpegDecoder(FFmpegConfig{})

	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) Register(d Decoder) {
	for _, format := range d.Formats() {
		l.decoders[strings.ToLower(format)] = d
	}
}

// Formats lists every extension the loader will attempt, sorted.
func (l *Loader) Formats() []string {
	seen := make(map[string]bool)
	for ext := range l.decoders {
		seen[ext] = true
	}
	if l.fallback != nil {
		for _, ext := range l.fallback.Formats() {
			seen[ext] = true
		}
	}
	out := make([]string, 0, len(seen))
	for ext := range seen {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether path has an extension a native decoder or the
// fallback claims.
func (l *Loader) Supports(path string) bool {
	ext := extension(path)
	if _, ok := l.decoders[ext]; ok {
		return true
	}
	if l.fallback == nil {
		return false
	}
	for _, f := range l.fallback.Formats() {
		if f == ext {
			return true
		}
	}
	return false
}

// Load decodes path. Every error wraps models.ErrDecodeFailure; context
// errors stay reachable through errors.Is.
func (l *Loader) Load(ctx context.Context, path string) (*Buffer, error) {
	buf, err := l.load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDecodeFailure, err)
	}
	if len(buf.Samples) == 0 {
		return nil, fmt.Errorf("%w: %s decoded to no samples", models.ErrDecodeFailure, path)
	}
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s has sample rate %d", models.ErrDecodeFailure, path, buf.SampleRate)
	}
	return buf, nil
}

func (l *Loader) load(ctx context.Context, path string) (*Buffer, error) {
	dec, ok := l.decoders[extension(path)]
	if !ok {
		if l.fallback == nil {
			return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
		}
		return l.fallback.Decode(ctx, path)
	}

	buf, err := dec.Decode(ctx, path)
	if err == nil {
		return buf, nil
	}
	if ctx.Err() != nil || l.fallback == nil {
		return nil, err
	}

	fbuf, ferr := l.fallback.Decode(ctx, path)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return fbuf, nil
}

func extension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
