package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FakeCodec is an audio.CommandRunner standing in for ffprobe and ffmpeg.
type FakeCodec struct {
	mu sync.Mutex

	// DurationSeconds is reported by ffprobe, e.g. "5400.000".
	DurationSeconds string
	ProbeErr        error
	// FailExport makes the export of this many-th segment (1-based) fail.
	FailExport int

	Exports []string
}

// NewFakeCodec reports a media file of the given length in seconds.
func NewFakeCodec(durationSeconds float64) *FakeCodec {
	return &FakeCodec{DurationSeconds: fmt.Sprintf("%.3f", durationSeconds)}
}

func (f *FakeCodec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch filepath.Base(name) {
	case "ffprobe":
		if f.ProbeErr != nil {
			return nil, f.ProbeErr
		}
		return []byte(fmt.Sprintf(`{"format": {"duration": %q}}`, f.DurationSeconds)), nil
	case "ffmpeg":
		dst := args[len(args)-1]
		f.Exports = append(f.Exports, dst)
		if f.FailExport > 0 && len(f.Exports) == f.FailExport {
			return nil, fmt.Errorf("ffmpeg error: exit status 1, stderr: %s", "Invalid data found when processing input")
		}
		if err := os.WriteFile(dst, []byte("fake segment"), 0o644); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected command %s %s", name, strings.Join(args, " "))
	}
}

// ExportCount returns how many ffmpeg exports were attempted.
func (f *FakeCodec) ExportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Exports)
}
