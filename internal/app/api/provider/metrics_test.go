package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe-transcriber/internal/app/model"
)

type stubTranscriber struct {
	err    error
	result *model.ChunkTranscription
}

func (s *stubTranscriber) TranscribeChunk(ctx context.Context, request *ChunkRequest) (*model.ChunkTranscription, error) {
	return s.result, s.err
}

func (s *stubTranscriber) GetProviderInfo() ProviderInfo {
	return ProviderInfo{Name: "stub", Type: ProviderTypeRemote}
}

func (s *stubTranscriber) ValidateConfiguration() error {
	return nil
}

func TestRecordSuccessAndFailure(t *testing.T) {
	m := NewProviderMetrics()

	m.RecordSuccess("elevenlabs", 1000, 2700)
	m.RecordSuccess("elevenlabs", 2000, 1200)
	m.RecordFailure("elevenlabs", "rate_limit_exceeded")

	stats := m.GetProviderMetrics("elevenlabs")
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(2), stats.SuccessfulRequests)
	assert.Equal(t, int64(1), stats.FailedRequests)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 1200.0, stats.AverageLatencyMs, 1e-9)
	assert.InDelta(t, 3900.0, stats.TotalAudioProcessed, 1e-9)
	assert.Equal(t, int64(1), stats.ErrorBreakdown["rate_limit_exceeded"])

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("elevenlabs")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("elevenlabs", "rate_limit_exceeded")))
	assert.Equal(t, 3900.0, testutil.ToFloat64(m.audioSeconds.WithLabelValues("elevenlabs")))
}

func TestGetProviderMetricsReturnsCopy(t *testing.T) {
	m := NewProviderMetrics()
	m.RecordFailure("openai", "server_error")

	stats := m.GetProviderMetrics("openai")
	stats.ErrorBreakdown["server_error"] = 99

	assert.Equal(t, int64(1), m.GetProviderMetrics("openai").ErrorBreakdown["server_error"])
	assert.Equal(t, ProviderStats{Provider: "unused"}, m.GetProviderMetrics("unused"))
}

func TestInstrumentRecordsOutcomes(t *testing.T) {
	m := NewProviderMetrics()
	ok := Instrument(&stubTranscriber{result: &model.ChunkTranscription{Text: "hi"}}, m)
	failing := Instrument(&stubTranscriber{err: &TranscriptionError{Code: "server_error", Provider: "stub"}}, m)

	result, err := ok.TranscribeChunk(context.Background(), &ChunkRequest{AudioSeconds: 30})
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Text)

	_, err = failing.TranscribeChunk(context.Background(), &ChunkRequest{})
	require.Error(t, err)

	stats := m.GetProviderMetrics("stub")
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.ErrorBreakdown["server_error"])
	assert.Equal(t, 30.0, stats.TotalAudioProcessed)
}

func TestInstrumentWithoutMetrics(t *testing.T) {
	stub := &stubTranscriber{}
	assert.Same(t, ChunkTranscriber(stub), Instrument(stub, nil))
}

func TestWriteTextfile(t *testing.T) {
	m := NewProviderMetrics()
	m.RecordSuccess("elevenlabs", 1500, 60)

	path := filepath.Join(t.TempDir(), "scribe.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `scribe_chunk_requests_total{provider="elevenlabs"} 1`)
	assert.Contains(t, string(content), "scribe_chunk_latency_seconds_bucket")
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "file_too_large", ErrorCode(&TranscriptionError{Code: "file_too_large"}))
	assert.Equal(t, "unknown", ErrorCode(errors.New("plain")))
	assert.Equal(t, "authentication_failed", ErrorCode(
		errors.Join(errors.New("segment 0"), &TranscriptionError{Code: "authentication_failed"})))
}
