package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"scribe-transcriber/internal/app/audio"
	apperrors "scribe-transcriber/internal/app/errors"
	"scribe-transcriber/internal/app/logging"
	"scribe-transcriber/internal/app/util/files"
)

// SourceKind tells Resolve how to obtain a local media file.
type SourceKind int

const (
	KindLocal SourceKind = iota
	KindYouTube
	KindDirect
	KindPage
)

func (k SourceKind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindYouTube:
		return "youtube"
	case KindDirect:
		return "direct"
	case KindPage:
		return "page"
	default:
		return "unknown"
	}
}

var mediaExtensions = []string{
	".mp3", ".m4a", ".wav", ".ogg", ".oga", ".opus", ".flac", ".aac", ".ape",
	".mp4", ".m4v", ".mkv", ".mov", ".webm", ".avi",
}

var youtubeHosts = []string{
	"youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be",
}

// Page meta tags that may point at the media, in order of preference.
var mediaMetaSelectors = []string{
	`meta[property="og:audio"]`,
	`meta[property="og:audio:url"]`,
	`meta[property="og:audio:secure_url"]`,
	`meta[property="og:video"]`,
	`meta[property="og:video:url"]`,
	`meta[property="og:video:secure_url"]`,
	`meta[name="twitter:player:stream"]`,
}

// Classify decides how source will be resolved.
func Classify(source string) SourceKind {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return KindLocal
	}
	if lo.Contains(youtubeHosts, strings.ToLower(u.Hostname())) {
		return KindYouTube
	}
	if mediaExtension(u.Path) != "" {
		return KindDirect
	}
	return KindPage
}

func mediaExtension(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if lo.Contains(mediaExtensions, ext) {
		return ext
	}
	return ""
}

// Downloader turns a local path or a media URL into a local media file.
type Downloader struct {
	client    *http.Client
	runner    audio.CommandRunner
	ytDlpPath string
	logger    *zap.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		d.client = client
	}
}

func WithCommandRunner(r audio.CommandRunner) Option {
	return func(d *Downloader) {
		d.runner = r
	}
}

// WithYtDlp overrides the yt-dlp executable.
func WithYtDlp(path string) Option {
	return func(d *Downloader) {
		if path != "" {
			d.ytDlpPath = path
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Downloader) {
		d.logger = logging.OrNop(logger)
	}
}

func New(opts ...Option) *Downloader {
	d := &Downloader{
		client:    &http.Client{},
		runner:    audio.ExecRunner(),
		ytDlpPath: "yt-dlp",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve returns a local path for source, downloading into dir when source
// is a URL. Local paths are made absolute, with a leading ~ expanded.
func (d *Downloader) Resolve(ctx context.Context, source, dir string) (string, error) {
	kind := Classify(source)
	if kind == KindLocal {
		local, err := files.GetAbsolutePath(source)
		if err != nil || !files.Exists(local) {
			return "", apperrors.Wrapf(apperrors.ErrFileNotFound, "input %s", source)
		}
		return local, nil
	}

	if err := files.EnsureDir(dir); err != nil {
		return "", apperrors.Mark(err, apperrors.ErrDownloadFailed)
	}

	d.logger.Info("downloading media", zap.String("url", source), zap.Stringer("kind", kind), zap.String("dir", dir))

	var (
		localPath string
		err       error
	)
	switch kind {
	case KindYouTube:
		localPath, err = d.downloadYouTube(ctx, source, dir)
	case KindDirect:
		localPath, err = d.downloadFile(ctx, source, filepath.Join(dir, fileNameFromURL(source)))
	default:
		localPath, err = d.downloadFromPage(ctx, source, dir)
	}
	if err != nil {
		return "", apperrors.Mark(fmt.Errorf("%s: %w", source, err), apperrors.ErrDownloadFailed)
	}

	d.logger.Info("media ready", zap.String("path", localPath))
	return localPath, nil
}

// downloadYouTube extracts the audio track with yt-dlp and returns the final
// file path it reports.
func (d *Downloader) downloadYouTube(ctx context.Context, source, dir string) (string, error) {
	output, err := d.runner.Run(ctx, d.ytDlpPath,
		"-x",
		"--audio-format", "mp3",
		"--no-playlist",
		"--no-progress",
		"-o", filepath.Join(dir, "%(title)s.%(ext)s"),
		"--print", "after_move:filepath",
		source,
	)
	if err != nil {
		return "", err
	}

	lines := lo.Filter(strings.Split(string(output), "\n"), func(line string, _ int) bool {
		return strings.TrimSpace(line) != ""
	})
	if len(lines) == 0 {
		return "", fmt.Errorf("yt-dlp did not report an output file")
	}
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// downloadFromPage finds the media URL in the page's Open Graph tags.
func (d *Downloader) downloadFromPage(ctx context.Context, pageURL, dir string) (string, error) {
	mediaURL, title, err := d.getMediaInfo(ctx, pageURL)
	if err != nil {
		return "", err
	}

	name := fileNameFromURL(mediaURL)
	if title != "" {
		ext := mediaExtension(mustPath(mediaURL))
		name = validPath(title) + lo.Ternary(ext != "", ext, path.Ext(name))
	}
	return d.downloadFile(ctx, mediaURL, filepath.Join(dir, name))
}

func (d *Downloader) getMediaInfo(ctx context.Context, pageURL string) (mediaURL string, title string, err error) {
	resp, err := d.get(ctx, pageURL)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", err
	}

	for _, selector := range mediaMetaSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			mediaURL = strings.TrimSpace(content)
			break
		}
	}
	if mediaURL == "" {
		return "", "", apperrors.Wrapf(apperrors.ErrUnsupportedInput, "no audio or video link found on %s", pageURL)
	}

	base, _ := url.Parse(pageURL)
	ref, err := url.Parse(mediaURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid media url %q: %w", mediaURL, err)
	}

	title, _ = doc.Find(`meta[property="og:title"]`).First().Attr("content")
	if title == "" {
		title = doc.Find("title").First().Text()
	}
	return base.ResolveReference(ref).String(), strings.TrimSpace(title), nil
}

// downloadFile streams url into target. An existing file of the same size is
// reused.
func (d *Downloader) downloadFile(ctx context.Context, mediaURL, target string) (string, error) {
	resp, err := d.get(ctx, mediaURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if info, err := os.Stat(target); err == nil && resp.ContentLength > 0 && info.Size() == resp.ContentLength {
		d.logger.Info("local file matches remote size, skipping download", zap.String("path", target))
		return target, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return "", fmt.Errorf("short download: got %d of %d bytes", written, resp.ContentLength)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", err
	}
	d.logger.Debug("downloaded", zap.String("path", target), zap.Int64("bytes", written))
	return target, nil
}

func (d *Downloader) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "scribe-transcriber/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", rawURL, resp.Status)
	}
	return resp, nil
}

func fileNameFromURL(rawURL string) string {
	p := mustPath(rawURL)
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	name := validPath(path.Base(p))
	if name == "" || name == "." || name == "-" {
		return "download"
	}
	return name
}

func mustPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

func validPath(name string) string {
	return strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(strings.TrimSpace(name))
}
