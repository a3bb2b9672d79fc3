package audio

import (
	"context"
	"math"
)

// resampleZeros is how many sinc zero crossings each side of the kernel
// spans at the output cutoff.
const resampleZeros = 16

// Resample converts buf to rate with a Lanczos-windowed sinc filter. When
// downsampling the cutoff drops to the new Nyquist so nothing aliases.
// buf is returned unchanged when rate is not positive, already matches, or
// buf has nothing to convert.
func Resample(ctx context.Context, buf *Buffer, rate int) (*Buffer, error) {
	if buf == nil || rate <= 0 || buf.SampleRate <= 0 || buf.SampleRate == rate || len(buf.Samples) == 0 {
		return buf, nil
	}

	in := buf.Samples
	step := float64(buf.SampleRate) / float64(rate)
	cutoff := math.Min(1, float64(rate)/float64(buf.SampleRate))
	width := resampleZeros / cutoff

	n := int(math.Ceil(float64(len(in)) * float64(rate) / float64(buf.SampleRate)))
	out := make([]float64, n)
	for i := range out {
		if i%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		t := float64(i) * step
		lo := max(int(math.Ceil(t-width)), 0)
		hi := min(int(math.Floor(t+width)), len(in)-1)

		var sum, norm float64
		for j := lo; j <= hi; j++ {
			x := t - float64(j)
			w := cutoff * sinc(cutoff*x) * sinc(x/width)
			sum += in[j] * w
			norm += w
		}
		if norm != 0 {
			out[i] = sum / norm
		}
	}
	return &Buffer{Samples: out, SampleRate: rate}, nil
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
