package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/SoundAlike/pkg/utils"
)

const (
	DefaultConvertRate    = 22050
	DefaultConvertTimeout = 30 * time.Second
)

type ConvertWAVConfig struct {
	SampleRate int // e.g. 11025, 22050, 44100
	Binary     string
}

// ConvertToMonoWAV converts an audio file to mono PCM WAV
// and saves it to outputDir, preserving the filename.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (string, error) {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultConvertRate
	}
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}

	// cap conversions the caller left unbounded
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultConvertTimeout)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, baseName+".wav")

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		cfg.Binary,
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

type FFmpegConfig struct {
	SampleRate int
	TempDir    string
	Binary     string
}

// FFmpegDecoder shells out to ffmpeg for anything the native decoders
// cannot read, then decodes the intermediate WAV.
type FFmpegDecoder struct {
	cfg FFmpegConfig
}

func NewFFmpegDecoder(cfg FFmpegConfig) *FFmpegDecoder {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConvertRate
	}
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	return &FFmpegDecoder{cfg: cfg}
}

func (d *FFmpegDecoder) Formats() []string {
	return []string{"ogg", "oga", "opus", "m4a", "aac", "wma", "aif", "aiff", "webm", "mp4"}
}

// Available reports whether the ffmpeg binary can be found.
func (d *FFmpegDecoder) Available() bool {
	_, err := exec.LookPath(d.cfg.Binary)
	return err == nil
}

func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (*Buffer, error) {
	if !d.Available() {
		return nil, fmt.Errorf("%s not found in PATH", d.cfg.Binary)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	if d.cfg.TempDir != "" {
		if err := utils.MakeDir(d.cfg.TempDir); err != nil {
			return nil, err
		}
	}
	workDir, err := os.MkdirTemp(d.cfg.TempDir, "soundalike-ffmpeg-*")
	if err != nil {
		return nil, err
	}
	defer utils.DeleteDir(workDir)

	wavPath, err := ConvertToMonoWAV(ctx, path, workDir, ConvertWAVConfig{
		SampleRate: d.cfg.SampleRate,
		Binary:     d.cfg.Binary,
	})
	if err != nil {
		return nil, err
	}

	return WAVDecoder{}.Decode(ctx, wavPath)
}
