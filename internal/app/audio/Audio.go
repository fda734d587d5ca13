package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "scribe-transcriber/internal/app/errors"
	"scribe-transcriber/internal/app/model"
)

// CommandRunner runs an external program and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

// ExecRunner returns the CommandRunner that starts real processes.
func ExecRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	// capture stderr so codec failures carry their diagnostics
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s error: %v, stderr: %s", filepath.Base(name), err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// FFmpeg wraps the ffmpeg and ffprobe binaries. All decoding and encoding is
// delegated to them.
type FFmpeg struct {
	runner      CommandRunner
	ffmpegPath  string
	ffprobePath string
	bitrateKbps int
}

// DefaultBitrateKbps is the mp3 bitrate segments are encoded at.
const DefaultBitrateKbps = 128

// FFmpegOption configures an FFmpeg.
type FFmpegOption func(*FFmpeg)

// WithCommandRunner replaces the process runner, mainly for tests.
func WithCommandRunner(r CommandRunner) FFmpegOption {
	return func(f *FFmpeg) {
		f.runner = r
	}
}

// WithBinaries overrides the ffmpeg and ffprobe executables.
func WithBinaries(ffmpegPath, ffprobePath string) FFmpegOption {
	return func(f *FFmpeg) {
		if ffmpegPath != "" {
			f.ffmpegPath = ffmpegPath
		}
		if ffprobePath != "" {
			f.ffprobePath = ffprobePath
		}
	}
}

// WithBitrate sets the mp3 bitrate of exported segments in kbit/s.
func WithBitrate(kbps int) FFmpegOption {
	return func(f *FFmpeg) {
		if kbps > 0 {
			f.bitrateKbps = kbps
		}
	}
}

func NewFFmpeg(opts ...FFmpegOption) *FFmpeg {
	f := &FFmpeg{
		runner:      execRunner{},
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		bitrateKbps: DefaultBitrateKbps,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Duration returns the length of the media file, rounded to the millisecond.
func (f *FFmpeg) Duration(ctx context.Context, filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, apperrors.Wrapf(apperrors.ErrFileNotFound, "%s", filePath)
	}

	output, err := f.runner.Run(ctx, f.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		filePath)
	if err != nil {
		return 0, apperrors.Mark(err, apperrors.ErrProbeFailed)
	}

	var probeOutput model.FFProbeOutput
	if err := json.Unmarshal(output, &probeOutput); err != nil {
		return 0, apperrors.Mark(fmt.Errorf("parse ffprobe output: %w", err), apperrors.ErrProbeFailed)
	}

	raw := strings.TrimSpace(probeOutput.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, apperrors.Mark(fmt.Errorf("no duration reported for %s", filePath), apperrors.ErrProbeFailed)
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Mark(fmt.Errorf("parse duration %q: %w", raw, err), apperrors.ErrProbeFailed)
	}

	return time.Duration(math.Round(seconds*1000)) * time.Millisecond, nil
}

// ExportSegment encodes [start, start+length) of src as an mp3 file at dst.
func (f *FFmpeg) ExportSegment(ctx context.Context, src, dst string, start, length time.Duration) error {
	_, err := f.runner.Run(ctx, f.ffmpegPath,
		"-y", "-v", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", src,
		"-vn", "-acodec", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", f.bitrateKbps),
		dst)
	if err != nil {
		return apperrors.Mark(err, apperrors.ErrSegmentFailed)
	}
	return nil
}

// BitrateKbps is the mp3 bitrate segments are exported at.
func (f *FFmpeg) BitrateKbps() int {
	return f.bitrateKbps
}

// MaxSegmentLength is the longest segment whose mp3 at bitrateKbps stays
// under maxSizeMB, with 5% left for container overhead. It returns 0 when
// either value is not positive.
func MaxSegmentLength(maxSizeMB, bitrateKbps int) time.Duration {
	if maxSizeMB <= 0 || bitrateKbps <= 0 {
		return 0
	}
	bits := float64(maxSizeMB) * 1024 * 1024 * 8 * 0.95
	seconds := math.Floor(bits / (float64(bitrateKbps) * 1000))
	return time.Duration(seconds) * time.Second
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
