package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scribe-transcriber/internal/app/errors"
)

type ytDlpRunner struct {
	name   string
	args   []string
	output string
	err    error
}

func (r *ytDlpRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	return []byte(r.output), r.err
}

const mediaPayload = "ID3 fake audio payload"

// createMockSite serves an episode page whose og:audio points at a relative
// media path, plus the media itself.
func createMockSite(t *testing.T, pageHTML string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/episode/42", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, pageHTML)
	})
	mux.HandleFunc("/media/show.m4a", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mediaPayload))
	})
	return httptest.NewServer(mux)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		source string
		want   SourceKind
	}{
		{"meeting.mp4", KindLocal},
		{"/abs/path/talk.m4a", KindLocal},
		{"C:/recordings/a.wav", KindLocal},
		{"https://www.youtube.com/watch?v=abc", KindYouTube},
		{"https://youtu.be/abc", KindYouTube},
		{"https://cdn.example.com/a/b/show.MP3?token=1", KindDirect},
		{"http://example.com/video.webm", KindDirect},
		{"https://www.example.com/episode/123", KindPage},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.source))
		})
	}
}

func TestResolveLocal(t *testing.T) {
	d := New()
	file := filepath.Join(t.TempDir(), "talk.mp3")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	got, err := d.Resolve(context.Background(), file, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, file, got)

	_, err = d.Resolve(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFileNotFound))
}

func TestResolveLocalExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "talk.mp3"), []byte("x"), 0o644))

	got, err := New().Resolve(context.Background(), "~/talk.mp3", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "talk.mp3"), got)
}

func TestResolveDirectURL(t *testing.T) {
	server := createMockSite(t, "")
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "downloads")
	d := New(WithHTTPClient(server.Client()))

	got, err := d.Resolve(context.Background(), server.URL+"/media/show.m4a", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "show.m4a"), got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, mediaPayload, string(data))

	// a second run reuses the file
	got, err = d.Resolve(context.Background(), server.URL+"/media/show.m4a", dir)
	require.NoError(t, err)
	assert.FileExists(t, got)
}

func TestResolvePageWithOpenGraphAudio(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
    <meta property="og:title" content="Weekly/Show Ep. 42">
    <meta property="og:audio" content="/media/show.m4a">
</head>
<body></body>
</html>`
	server := createMockSite(t, page)
	defer server.Close()

	dir := t.TempDir()
	d := New(WithHTTPClient(server.Client()))

	got, err := d.Resolve(context.Background(), server.URL+"/episode/42", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Weekly-Show Ep. 42.m4a"), got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, mediaPayload, string(data))
}

func TestResolvePageWithoutMedia(t *testing.T) {
	server := createMockSite(t, `<html><head><title>nothing</title></head></html>`)
	defer server.Close()

	d := New(WithHTTPClient(server.Client()))
	_, err := d.Resolve(context.Background(), server.URL+"/episode/42", t.TempDir())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDownloadFailed))
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedInput))
}

func TestResolveHTTPError(t *testing.T) {
	server := createMockSite(t, "")
	defer server.Close()

	d := New(WithHTTPClient(server.Client()))
	_, err := d.Resolve(context.Background(), server.URL+"/media/missing.mp3", t.TempDir())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDownloadFailed))
	assert.Contains(t, err.Error(), "404")
}

func TestResolveYouTube(t *testing.T) {
	dir := t.TempDir()
	runner := &ytDlpRunner{output: "\n" + filepath.Join(dir, "Talk.mp3") + "\n"}
	d := New(WithCommandRunner(runner), WithYtDlp("/opt/bin/yt-dlp"))

	got, err := d.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Talk.mp3"), got)
	assert.Equal(t, "/opt/bin/yt-dlp", runner.name)
	assert.Contains(t, runner.args, "--audio-format")
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", runner.args[len(runner.args)-1])
}

func TestResolveYouTubeFailures(t *testing.T) {
	tests := map[string]*ytDlpRunner{
		"runner error": {err: fmt.Errorf("yt-dlp error: exit status 1")},
		"no output":    {output: "\n"},
	}
	for name, runner := range tests {
		t.Run(name, func(t *testing.T) {
			d := New(WithCommandRunner(runner))
			_, err := d.Resolve(context.Background(), "https://youtu.be/abc", t.TempDir())
			assert.True(t, errors.Is(err, apperrors.ErrDownloadFailed))
		})
	}
}

func TestFileNameFromURL(t *testing.T) {
	assert.Equal(t, "episode 42.mp3", fileNameFromURL("https://x.test/media/episode%2042.mp3?sig=1"))
	assert.Equal(t, "download", fileNameFromURL("https://x.test/"))
	assert.Equal(t, "download", fileNameFromURL("https://x.test"))
}
