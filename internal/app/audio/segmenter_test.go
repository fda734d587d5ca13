package audio

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scribe-transcriber/internal/app/errors"
	"scribe-transcriber/internal/app/model"
)

func TestPlanTilesWholeDuration(t *testing.T) {
	lengths := []time.Duration{time.Millisecond, 7 * time.Millisecond, time.Second, DefaultSegmentLength}
	totals := []time.Duration{
		0,
		time.Millisecond,
		999 * time.Millisecond,
		time.Second,
		time.Second + time.Millisecond,
		45 * time.Minute,
		90*time.Minute + 1,
		3*time.Hour + 17*time.Second,
	}

	for _, length := range lengths {
		for _, total := range totals {
			if total/length > 100000 {
				continue
			}
			bounds, err := Plan(total, length)
			require.NoError(t, err)

			expected := int((total + length - 1) / length)
			require.Len(t, bounds, expected, "total=%s length=%s", total, length)

			var cursor time.Duration
			for i, b := range bounds {
				assert.Equal(t, i, b.Index)
				assert.Equal(t, cursor, b.Start, "segments must be contiguous")
				assert.Greater(t, b.End, b.Start)
				assert.LessOrEqual(t, b.End-b.Start, length)
				cursor = b.End
			}
			assert.Equal(t, total, cursor, "segments must end exactly at total")
		}
	}
}

func TestPlanEdgeCases(t *testing.T) {
	t.Run("zero duration yields no segments", func(t *testing.T) {
		bounds, err := Plan(0, DefaultSegmentLength)
		require.NoError(t, err)
		assert.Empty(t, bounds)
	})

	t.Run("shorter than length yields the whole input", func(t *testing.T) {
		bounds, err := Plan(10*time.Minute, DefaultSegmentLength)
		require.NoError(t, err)
		assert.Equal(t, []Bounds{{Index: 0, Start: 0, End: 10 * time.Minute}}, bounds)
	})

	t.Run("exact multiple has no empty tail", func(t *testing.T) {
		bounds, err := Plan(90*time.Minute, DefaultSegmentLength)
		require.NoError(t, err)
		require.Len(t, bounds, 2)
		assert.Equal(t, 90*time.Minute, bounds[1].End)
	})

	t.Run("non-positive length is rejected", func(t *testing.T) {
		_, err := Plan(time.Minute, 0)
		assert.Error(t, err)
		_, err = Plan(time.Minute, -time.Second)
		assert.Error(t, err)
	})

	t.Run("negative total is rejected", func(t *testing.T) {
		_, err := Plan(-time.Second, time.Second)
		assert.Error(t, err)
	})
}

func newTestSegmenter(t *testing.T, runner *fakeRunner, length time.Duration) *Segmenter {
	t.Helper()
	codec := NewFFmpeg(WithCommandRunner(runner))
	return NewSegmenter(codec, length, filepath.Join(t.TempDir(), "work"), nil)
}

func collect(t *testing.T, s *Segmenter, source string) ([]model.Segment, error) {
	t.Helper()
	var segments []model.Segment
	for segment, err := range s.Split(context.Background(), source) {
		if err != nil {
			return segments, err
		}
		segments = append(segments, segment)
	}
	return segments, nil
}

func TestSplitExportsInOrder(t *testing.T) {
	runner := &fakeRunner{duration: "250.5"}
	s := newTestSegmenter(t, runner, 100*time.Second)

	segments, err := collect(t, s, writeSource(t))
	require.NoError(t, err)
	require.Len(t, segments, 3)

	for i, segment := range segments {
		assert.Equal(t, i, segment.Index)
		assert.Equal(t, filepath.Join(s.WorkDir(), []string{"segment_000.mp3", "segment_001.mp3", "segment_002.mp3"}[i]), segment.Path)
		assert.FileExists(t, segment.Path)
	}
	assert.Equal(t, 200*time.Second, segments[2].Start)
	assert.Equal(t, 250500*time.Millisecond, segments[2].End)

	exports := runner.exports()
	require.Len(t, exports, 3)
	assert.Equal(t, "50.500", argAfter(exports[2].args, "-t"))
}

func TestSplitIsLazy(t *testing.T) {
	runner := &fakeRunner{duration: "300"}
	s := newTestSegmenter(t, runner, 100*time.Second)

	for segment, err := range s.Split(context.Background(), writeSource(t)) {
		require.NoError(t, err)
		assert.Equal(t, 0, segment.Index)
		break
	}

	assert.Len(t, runner.exports(), 1, "only the pulled segment is exported")
}

func TestSegmentsRestartable(t *testing.T) {
	runner := &fakeRunner{duration: "150"}
	s := newTestSegmenter(t, runner, 100*time.Second)

	sg, err := s.Prepare(context.Background(), writeSource(t))
	require.NoError(t, err)
	assert.Equal(t, 2, sg.Len())

	for range 2 {
		var indexes []int
		for segment, err := range sg.Segments(context.Background()) {
			require.NoError(t, err)
			indexes = append(indexes, segment.Index)
		}
		assert.Equal(t, []int{0, 1}, indexes)
	}
	assert.Len(t, runner.exports(), 4)
}

func TestSplitZeroDuration(t *testing.T) {
	runner := &fakeRunner{duration: "0.0"}
	s := newTestSegmenter(t, runner, time.Minute)

	segments, err := collect(t, s, writeSource(t))
	require.NoError(t, err)
	assert.Empty(t, segments)
	assert.NoDirExists(t, s.WorkDir())
}

func TestSplitStopsOnExportError(t *testing.T) {
	runner := &fakeRunner{duration: "300", failExportN: 2}
	s := newTestSegmenter(t, runner, 100*time.Second)

	segments, err := collect(t, s, writeSource(t))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrSegmentFailed))
	assert.Len(t, segments, 1)
	assert.Len(t, runner.exports(), 2)
}

func TestSplitProbeError(t *testing.T) {
	runner := &fakeRunner{probeErr: stderrors.New("ffprobe error: exit status 1")}
	s := newTestSegmenter(t, runner, time.Minute)

	_, err := collect(t, s, writeSource(t))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrProbeFailed))
}

func TestSplitHonoursCancellation(t *testing.T) {
	runner := &fakeRunner{duration: "300"}
	s := newTestSegmenter(t, runner, 100*time.Second)
	sg, err := s.Prepare(context.Background(), writeSource(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, err := range sg.Segments(ctx) {
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Empty(t, runner.exports())
}

func TestCleanupRemovesSegmentsAndDirectory(t *testing.T) {
	runner := &fakeRunner{duration: "150"}
	s := newTestSegmenter(t, runner, 100*time.Second)

	segments, err := collect(t, s, writeSource(t))
	require.NoError(t, err)
	require.DirExists(t, s.WorkDir())

	require.NoError(t, s.Cleanup(segments))
	for _, segment := range segments {
		assert.NoFileExists(t, segment.Path)
	}
	assert.NoDirExists(t, s.WorkDir())
	_, statErr := os.Stat(filepath.Dir(s.WorkDir()))
	assert.True(t, os.IsNotExist(statErr), "empty work root is removed too")
}
