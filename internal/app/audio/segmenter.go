package audio

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "scribe-transcriber/internal/app/errors"
	"scribe-transcriber/internal/app/logging"
	"scribe-transcriber/internal/app/model"
)

const (
	// DefaultSegmentLength keeps uploads well inside the service's per-request limits.
	DefaultSegmentLength = 45 * time.Minute

	// DefaultWorkDir is where segment files are written, one subdirectory per run.
	DefaultWorkDir = "temp_audio_segments"
)

// Bounds is the time range of one planned segment, End exclusive.
type Bounds struct {
	Index int
	Start time.Duration
	End   time.Duration
}

// Plan splits [0, total) into ceil(total/length) contiguous ranges. A zero
// total yields no ranges.
func Plan(total, length time.Duration) ([]Bounds, error) {
	if length <= 0 {
		return nil, apperrors.InvalidField("segment length", "must be positive")
	}
	if total < 0 {
		return nil, apperrors.InvalidField("total duration", "must not be negative")
	}

	count := int((total + length - 1) / length)
	bounds := make([]Bounds, 0, count)
	for i := 0; i < count; i++ {
		start := time.Duration(i) * length
		bounds = append(bounds, Bounds{
			Index: i,
			Start: start,
			End:   min(start+length, total),
		})
	}
	return bounds, nil
}

// Segmenter cuts a media file into fixed-length mp3 segments.
type Segmenter struct {
	codec   *FFmpeg
	length  time.Duration
	workDir string
	logger  *zap.Logger
}

func NewSegmenter(codec *FFmpeg, length time.Duration, workRoot string, logger *zap.Logger) *Segmenter {
	if length <= 0 {
		length = DefaultSegmentLength
	}
	if workRoot == "" {
		workRoot = DefaultWorkDir
	}
	return &Segmenter{
		codec:   codec,
		length:  length,
		workDir: filepath.Join(workRoot, uuid.NewString()),
		logger:  logging.OrNop(logger),
	}
}

// WorkDir is the directory segment files are written to.
func (s *Segmenter) WorkDir() string {
	return s.workDir
}

// Segmentation is a planned split of one source file. Nothing is written to
// disk until Segments is iterated.
type Segmentation struct {
	Source string
	Total  time.Duration
	Bounds []Bounds

	segmenter *Segmenter
}

// Len returns the number of segments.
func (sg *Segmentation) Len() int {
	return len(sg.Bounds)
}

// Prepare probes the source duration and plans the segment boundaries.
func (s *Segmenter) Prepare(ctx context.Context, audioPath string) (*Segmentation, error) {
	total, err := s.codec.Duration(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	bounds, err := Plan(total, s.length)
	if err != nil {
		return nil, err
	}

	s.logger.Info("planned audio segments",
		zap.String("source", audioPath),
		zap.Duration("total", total),
		zap.Duration("segment_length", s.length),
		zap.Int("segments", len(bounds)))

	return &Segmentation{
		Source:    audioPath,
		Total:     total,
		Bounds:    bounds,
		segmenter: s,
	}, nil
}

// Segments exports each planned segment as the consumer pulls it, in index
// order. Iteration stops at the first export error, which is yielded with the
// failing segment's index. Iterating again re-exports from the start.
func (sg *Segmentation) Segments(ctx context.Context) iter.Seq2[model.Segment, error] {
	return func(yield func(model.Segment, error) bool) {
		if len(sg.Bounds) == 0 {
			return
		}

		s := sg.segmenter
		if err := os.MkdirAll(s.workDir, 0o755); err != nil {
			yield(model.Segment{}, apperrors.Wrapf(err, "create segment directory %s", s.workDir))
			return
		}

		for _, b := range sg.Bounds {
			segment := model.Segment{
				Index: b.Index,
				Path:  filepath.Join(s.workDir, fmt.Sprintf("segment_%03d.mp3", b.Index)),
				Start: b.Start,
				End:   b.End,
			}

			if err := ctx.Err(); err != nil {
				yield(segment, err)
				return
			}

			s.logger.Debug("exporting segment", zap.Stringer("segment", segment), zap.String("path", segment.Path))
			if err := s.codec.ExportSegment(ctx, sg.Source, segment.Path, b.Start, b.End-b.Start); err != nil {
				yield(segment, apperrors.Wrapf(err, "export segment %d", b.Index))
				return
			}

			if !yield(segment, nil) {
				return
			}
		}
	}
}

// Split is Prepare followed by Segments.
func (s *Segmenter) Split(ctx context.Context, audioPath string) iter.Seq2[model.Segment, error] {
	return func(yield func(model.Segment, error) bool) {
		sg, err := s.Prepare(ctx, audioPath)
		if err != nil {
			yield(model.Segment{}, err)
			return
		}
		for segment, err := range sg.Segments(ctx) {
			if !yield(segment, err) {
				return
			}
		}
	}
}

// Cleanup deletes the given segment files and then the run directory.
func (s *Segmenter) Cleanup(segments []model.Segment) error {
	for _, segment := range segments {
		if err := os.Remove(segment.Path); err != nil && !os.IsNotExist(err) {
			return apperrors.Wrapf(err, "remove %s", segment.Path)
		}
	}
	if err := os.Remove(s.workDir); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrapf(err, "remove %s", s.workDir)
	}
	// the shared root goes too once no other run is using it
	_ = os.Remove(filepath.Dir(s.workDir))
	return nil
}
