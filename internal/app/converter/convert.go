package converter

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"scribe-transcriber/internal/app/api/provider"
	"scribe-transcriber/internal/app/audio"
	apperrors "scribe-transcriber/internal/app/errors"
	"scribe-transcriber/internal/app/logging"
	"scribe-transcriber/internal/app/model"
	"scribe-transcriber/internal/app/transcript"
	"scribe-transcriber/internal/app/util/files"
)

// Resolver turns the user's input into a local media file.
type Resolver interface {
	Resolve(ctx context.Context, source, dir string) (string, error)
}

// Options describes one transcription run.
type Options struct {
	Source      string `validate:"required"`
	OutputPath  string
	OutputDir   string `validate:"required_without=OutputPath"`
	DownloadDir string

	LanguageCode   string `validate:"omitempty,min=2,max=8"`
	NumSpeakers    int    `validate:"gte=0,lte=32"`
	Diarize        bool
	TagAudioEvents bool
	Model          string

	Format    transcript.Format `validate:"omitempty,oneof=text json"`
	JSONArray bool

	KeepSegments bool
	MetricsFile  string
	Progress     bool
}

// Result summarizes a finished run.
type Result struct {
	OutputPath string
	Source     string
	Duration   time.Duration
	Segments   int
}

type Converter struct {
	transcriber provider.ChunkTranscriber
	segmenter   *audio.Segmenter
	resolver    Resolver
	metrics     *provider.DefaultProviderMetrics
	console     io.Writer
	progressOut io.Writer
	logger      *zap.Logger
	validate    *validator.Validate
	now         func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		c.logger = logging.OrNop(logger)
	}
}

// WithConsole sets where text-mode lines are echoed. Nil disables the echo.
func WithConsole(w io.Writer) Option {
	return func(c *Converter) {
		c.console = w
	}
}

// WithMetrics sets the metrics written to Options.MetricsFile. The
// transcriber is expected to be instrumented with the same metrics.
func WithMetrics(metrics *provider.DefaultProviderMetrics) Option {
	return func(c *Converter) {
		c.metrics = metrics
	}
}

// WithProgressOutput sets where the progress bar is drawn.
func WithProgressOutput(w io.Writer) Option {
	return func(c *Converter) {
		c.progressOut = w
	}
}

// WithClock overrides the time source used for the header and file name.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

func NewConverter(transcriber provider.ChunkTranscriber, segmenter *audio.Segmenter, resolver Resolver, opts ...Option) *Converter {
	c := &Converter{
		transcriber: transcriber,
		segmenter:   segmenter,
		resolver:    resolver,
		console:     os.Stdout,
		progressOut: os.Stderr,
		logger:      zap.NewNop(),
		validate:    validator.New(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run transcribes one input. Segments are processed strictly in order and
// each result is appended to the output file before the next segment is
// exported. The first failure ends the run; everything written so far stays
// in the output file and the segment files stay on disk.
func (c *Converter) Run(ctx context.Context, opts Options) (result *Result, err error) {
	if err := c.validate.Struct(opts); err != nil {
		return nil, apperrors.Mark(err, apperrors.ErrInvalidConfig)
	}

	if opts.MetricsFile != "" && c.metrics != nil {
		defer func() {
			if werr := c.metrics.WriteTextfile(opts.MetricsFile); werr != nil {
				c.logger.Warn("failed to write metrics file", zap.String("path", opts.MetricsFile), zap.Error(werr))
			}
		}()
	}

	source, err := c.resolver.Resolve(ctx, opts.Source, opts.DownloadDir)
	if err != nil {
		return nil, err
	}

	segmentation, err := c.segmenter.Prepare(ctx, source)
	if err != nil {
		return nil, err
	}

	started := c.now()
	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = files.DefaultOutputPath(opts.OutputDir, started)
	}
	if err := files.EnsureParentDir(outputPath); err != nil {
		return nil, apperrors.Mark(err, apperrors.ErrFileWriteFailed)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, apperrors.Mark(err, apperrors.ErrFileWriteFailed)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = apperrors.Mark(cerr, apperrors.ErrFileWriteFailed)
		}
	}()

	c.logger.Info("transcribing",
		zap.String("source", source),
		zap.String("output", outputPath),
		zap.String("provider", c.transcriber.GetProviderInfo().Name),
		zap.Int("segments", segmentation.Len()))

	header := transcript.Header{
		SourceFile:     source,
		CreatedAt:      started,
		LanguageCode:   opts.LanguageCode,
		NumSpeakers:    opts.NumSpeakers,
		Diarize:        opts.Diarize,
		TagAudioEvents: opts.TagAudioEvents,
	}
	if err := transcript.WriteHeader(out, header); err != nil {
		return nil, apperrors.Mark(apperrors.Wrap(err, "write header"), apperrors.ErrFileWriteFailed)
	}

	var console io.Writer
	if opts.Format != transcript.FormatJSON {
		console = c.console
	}
	renderer, err := transcript.NewRenderer(opts.Format, out, console, opts.Diarize, opts.JSONArray)
	if err != nil {
		return nil, apperrors.Mark(err, apperrors.ErrInvalidConfig)
	}

	progress := NewProgressManager(ProgressConfig{Enabled: opts.Progress, Writer: c.progressOut})
	bar := progress.CreateBar(segmentation.Len(), "Transcribing")
	defer progress.Wait()

	// fail ends the run early. Lines already written stay in the file, the
	// turn still open is flushed and segment files stay on disk.
	fail := func(segment int, err error) (*Result, error) {
		bar.Abort()
		if ferr := renderer.Finish(); ferr != nil {
			c.logger.Warn("failed to flush transcript", zap.Error(ferr))
		}
		c.logger.Error("run failed, segment files kept",
			zap.Int("segment", segment),
			zap.String("dir", c.segmenter.WorkDir()),
			zap.Error(err))
		return nil, err
	}

	var done []model.Segment
	for segment, err := range segmentation.Segments(ctx) {
		if err != nil {
			return fail(segment.Index, err)
		}
		done = append(done, segment)

		segmentStart := time.Now()
		if err := c.transcribeSegment(ctx, renderer, segment, opts); err != nil {
			return fail(segment.Index, err)
		}
		bar.Increment(segmentStart)
	}

	if err := renderer.Finish(); err != nil {
		bar.Abort()
		return nil, apperrors.Mark(err, apperrors.ErrFileWriteFailed)
	}
	bar.Complete()

	if opts.KeepSegments {
		c.logger.Info("keeping segment files", zap.String("dir", c.segmenter.WorkDir()))
	} else if err := c.segmenter.Cleanup(done); err != nil {
		c.logger.Warn("failed to remove segment files", zap.String("dir", c.segmenter.WorkDir()), zap.Error(err))
	}

	c.logger.Info("transcription complete",
		zap.String("output", outputPath),
		zap.Duration("elapsed", c.now().Sub(started)))

	return &Result{
		OutputPath: outputPath,
		Source:     source,
		Duration:   segmentation.Total,
		Segments:   len(done),
	}, nil
}

func (c *Converter) transcribeSegment(ctx context.Context, renderer transcript.Renderer, segment model.Segment, opts Options) error {
	c.logger.Info("transcribing segment", zap.Stringer("segment", segment))

	chunk, err := c.transcriber.TranscribeChunk(ctx, &provider.ChunkRequest{
		FilePath:       segment.Path,
		LanguageCode:   opts.LanguageCode,
		NumSpeakers:    opts.NumSpeakers,
		Diarize:        opts.Diarize,
		TagAudioEvents: opts.TagAudioEvents,
		Model:          opts.Model,
		AudioSeconds:   segment.Duration().Seconds(),
	})
	if err != nil {
		return apperrors.Wrapf(apperrors.Mark(err, apperrors.ErrTranscriptionFailed), "segment %d", segment.Index)
	}

	if err := renderer.Chunk(segment.Index, chunk); err != nil {
		return apperrors.Wrapf(apperrors.Mark(err, apperrors.ErrFileWriteFailed), "segment %d", segment.Index)
	}

	c.logger.Debug("segment done",
		zap.Int("segment", segment.Index),
		zap.String("language", chunk.LanguageCode),
		zap.Int("words", len(chunk.Words)))
	return nil
}
