package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type recordedCall struct {
	name string
	args []string
}

// fakeRunner answers ffprobe with a fixed duration and makes ffmpeg write an
// empty file at its output path.
type fakeRunner struct {
	mu          sync.Mutex
	duration    string
	probeErr    error
	failExportN int
	calls       []recordedCall
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, recordedCall{name: name, args: args})

	switch filepath.Base(name) {
	case "ffprobe":
		if f.probeErr != nil {
			return nil, f.probeErr
		}
		return []byte(fmt.Sprintf(`{"format": {"duration": %q}}`, f.duration)), nil
	case "ffmpeg":
		if f.failExportN > 0 && len(f.exports()) == f.failExportN {
			return nil, fmt.Errorf("ffmpeg error: exit status 1, stderr: broken pipe")
		}
		out := args[len(args)-1]
		return nil, os.WriteFile(out, []byte("mp3"), 0o644)
	}
	return nil, fmt.Errorf("unexpected command %s %s", name, strings.Join(args, " "))
}

func (f *fakeRunner) exports() []recordedCall {
	var out []recordedCall
	for _, c := range f.calls {
		if filepath.Base(c.name) == "ffmpeg" {
			out = append(out, c)
		}
	}
	return out
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
