package main

import (
	"fmt"
	"image"
	"image/draw"
	"path/filepath"
	"strings"
	"time"

	"github.com/eligwz/spectrogram"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/SoundAlike/internal/audio"
	"github.com/himanishpuri/SoundAlike/pkg/utils"
)

func newSpectrogramCmd() *cobra.Command {
	var (
		output string
		width  int
		height int
		useLog bool
	)

	cmd := &cobra.Command{
		Use:   "spectrogram <audio_file>",
		Short: "Render an FFT spectrogram of a file to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 || height <= 0 {
				return fmt.Errorf("image size must be positive, got %dx%d", width, height)
			}

			loader := audio.NewLoader(audio.WithFallback(audio.NewFFmpegDecoder(audio.FFmpegConfig{
				SampleRate: sampleRate,
				TempDir:    tempDir,
			})))
			buf, err := loader.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output == "" {
				base := filepath.Base(args[0])
				output = strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := utils.MakeDir(dir); err != nil {
					return err
				}
			}

			img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
			black := spectrogram.ParseColor("000000")
			draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

			// Hamming window, FFT, magnitude
			spectrogram.Drawfft(img, buf.Samples, uint32(buf.SampleRate), uint32(height), false, false, true, useLog)

			if err := spectrogram.SavePng(img, output); err != nil {
				return fmt.Errorf("saving %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🖼️  Saved spectrogram of %s (%s) to %s\n",
				filepath.Base(args[0]), buf.Duration().Round(time.Millisecond), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG path (default <name>.png)")
	cmd.Flags().IntVar(&width, "width", 2048, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", 512, "Image height in pixels (frequency bins)")
	cmd.Flags().BoolVar(&useLog, "log", false, "Use a log10 magnitude scale")
	return cmd
}
