package provider

import (
	"context"

	"scribe-transcriber/internal/app/model"
)

// ChunkTranscriber transcribes one audio segment into timed, optionally
// speaker-attributed words.
type ChunkTranscriber interface {
	// TranscribeChunk sends one segment file to the service. Implementations
	// make exactly one attempt.
	TranscribeChunk(ctx context.Context, request *ChunkRequest) (*model.ChunkTranscription, error)

	// Provider metadata and capabilities
	GetProviderInfo() ProviderInfo

	// ValidateConfiguration checks credentials and settings without network access.
	ValidateConfiguration() error
}

// ProviderMetrics records per-provider outcomes.
type ProviderMetrics interface {
	RecordSuccess(provider string, latencyMs int64, audioLengthSec float64)
	RecordFailure(provider string, errorType string)
	GetProviderMetrics(provider string) ProviderStats
}

// ProviderStats contains statistics for a specific provider
type ProviderStats struct {
	Provider            string           `json:"provider"`
	TotalRequests       int64            `json:"total_requests"`
	SuccessfulRequests  int64            `json:"successful_requests"`
	FailedRequests      int64            `json:"failed_requests"`
	SuccessRate         float64          `json:"success_rate"`
	AverageLatencyMs    float64          `json:"average_latency_ms"`
	TotalAudioProcessed float64          `json:"total_audio_processed_sec"`
	LastUsed            int64            `json:"last_used_timestamp"`
	ErrorBreakdown      map[string]int64 `json:"error_breakdown"`
}
