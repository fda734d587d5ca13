package provider

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"scribe-transcriber/internal/app/model"
)

// DefaultProviderMetrics keeps running per-provider statistics and mirrors
// them into Prometheus collectors on a private registry.
type DefaultProviderMetrics struct {
	mu            sync.RWMutex
	providerStats map[string]*ProviderStats

	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	failures     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	audioSeconds *prometheus.CounterVec
}

// NewProviderMetrics creates a new provider metrics instance
func NewProviderMetrics() *DefaultProviderMetrics {
	m := &DefaultProviderMetrics{
		providerStats: make(map[string]*ProviderStats),
		registry:      prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "chunk_requests_total",
			Help:      "Segments submitted to a transcription provider.",
		}, []string{"provider"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "chunk_failures_total",
			Help:      "Failed segment transcriptions by error code.",
		}, []string{"provider", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scribe",
			Name:      "chunk_latency_seconds",
			Help:      "Wall time of successful segment transcriptions.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"provider"}),
		audioSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "audio_seconds_total",
			Help:      "Seconds of audio transcribed successfully.",
		}, []string{"provider"}),
	}
	m.registry.MustRegister(m.requests, m.failures, m.latency, m.audioSeconds)
	return m
}

// Registry exposes the Prometheus registry holding the collectors.
func (m *DefaultProviderMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metrics in the node-exporter textfile format.
func (m *DefaultProviderMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordSuccess records a successful transcription
func (m *DefaultProviderMetrics) RecordSuccess(provider string, latencyMs int64, audioLengthSec float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.getOrCreateStats(provider)
	stats.TotalRequests++
	stats.SuccessfulRequests++
	stats.TotalAudioProcessed += audioLengthSec
	stats.LastUsed = time.Now().Unix()

	if stats.AverageLatencyMs == 0 {
		stats.AverageLatencyMs = float64(latencyMs)
	} else {
		// Weighted average favoring recent results
		stats.AverageLatencyMs = (stats.AverageLatencyMs * 0.8) + (float64(latencyMs) * 0.2)
	}
	stats.SuccessRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests)

	m.requests.WithLabelValues(provider).Inc()
	m.latency.WithLabelValues(provider).Observe(float64(latencyMs) / 1000)
	m.audioSeconds.WithLabelValues(provider).Add(audioLengthSec)
}

// RecordFailure records a failed transcription
func (m *DefaultProviderMetrics) RecordFailure(provider string, errorType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.getOrCreateStats(provider)
	stats.TotalRequests++
	stats.FailedRequests++
	stats.LastUsed = time.Now().Unix()
	stats.ErrorBreakdown[errorType]++
	stats.SuccessRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests)

	m.requests.WithLabelValues(provider).Inc()
	m.failures.WithLabelValues(provider, errorType).Inc()
}

// GetProviderMetrics returns a copy of the metrics for a specific provider
func (m *DefaultProviderMetrics) GetProviderMetrics(provider string) ProviderStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats, exists := m.providerStats[provider]
	if !exists {
		return ProviderStats{Provider: provider}
	}

	snapshot := *stats
	snapshot.ErrorBreakdown = make(map[string]int64, len(stats.ErrorBreakdown))
	for k, v := range stats.ErrorBreakdown {
		snapshot.ErrorBreakdown[k] = v
	}
	return snapshot
}

// getOrCreateStats gets existing stats or creates new ones (must be called with lock held)
func (m *DefaultProviderMetrics) getOrCreateStats(provider string) *ProviderStats {
	stats, exists := m.providerStats[provider]
	if !exists {
		stats = &ProviderStats{
			Provider:       provider,
			ErrorBreakdown: make(map[string]int64),
		}
		m.providerStats[provider] = stats
	}
	return stats
}

// instrumented records every call of the wrapped transcriber.
type instrumented struct {
	ChunkTranscriber
	metrics ProviderMetrics
}

// Instrument wraps t so that each TranscribeChunk outcome is recorded in metrics.
func Instrument(t ChunkTranscriber, metrics ProviderMetrics) ChunkTranscriber {
	if metrics == nil {
		return t
	}
	return &instrumented{ChunkTranscriber: t, metrics: metrics}
}

func (i *instrumented) TranscribeChunk(ctx context.Context, request *ChunkRequest) (*model.ChunkTranscription, error) {
	name := i.GetProviderInfo().Name
	start := time.Now()

	result, err := i.ChunkTranscriber.TranscribeChunk(ctx, request)
	if err != nil {
		i.metrics.RecordFailure(name, ErrorCode(err))
		return nil, err
	}

	i.metrics.RecordSuccess(name, time.Since(start).Milliseconds(), request.AudioSeconds)
	return result, nil
}
