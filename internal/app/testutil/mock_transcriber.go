package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/stretchr/testify/mock"

	"scribe-transcriber/internal/app/api/provider"
	"scribe-transcriber/internal/app/model"
)

var segmentIndexPattern = regexp.MustCompile(`segment_(\d+)\.mp3$`)

// MockChunkTranscriber is a mock implementation of provider.ChunkTranscriber.
// Responses can be scripted per segment index with OnSegment and FailSegment,
// or with the embedded mock.Mock for anything else.
type MockChunkTranscriber struct {
	mock.Mock
	mu sync.Mutex

	Name      string
	Responses map[int]*model.ChunkTranscription
	Errors    map[int]error

	// Requests records every call in order.
	Requests []provider.ChunkRequest
}

// NewMockChunkTranscriber creates a mock that answers unscripted segments
// with an empty chunk.
func NewMockChunkTranscriber() *MockChunkTranscriber {
	return &MockChunkTranscriber{
		Name:      "mock",
		Responses: make(map[int]*model.ChunkTranscription),
		Errors:    make(map[int]error),
	}
}

// OnSegment scripts the result for the segment with the given index.
func (m *MockChunkTranscriber) OnSegment(index int, chunk *model.ChunkTranscription) *MockChunkTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[index] = chunk
	return m
}

// FailSegment makes the call for the given segment index return err.
func (m *MockChunkTranscriber) FailSegment(index int, err error) *MockChunkTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[index] = err
	return m
}

// CallCount returns the number of TranscribeChunk calls so far.
func (m *MockChunkTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// TranscribeChunk implements provider.ChunkTranscriber. The segment index is
// taken from the segment_NNN.mp3 file name.
func (m *MockChunkTranscriber) TranscribeChunk(ctx context.Context, request *provider.ChunkRequest) (*model.ChunkTranscription, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, *request)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(m.ExpectedCalls) > 0 {
		args := m.Called(ctx, request)
		chunk, _ := args.Get(0).(*model.ChunkTranscription)
		return chunk, args.Error(1)
	}

	index, err := SegmentIndex(request.FilePath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[index]; ok {
		return nil, err
	}
	if chunk, ok := m.Responses[index]; ok {
		return chunk, nil
	}
	return &model.ChunkTranscription{}, nil
}

func (m *MockChunkTranscriber) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:                m.Name,
		DisplayName:         "Mock",
		Type:                provider.ProviderTypeRemote,
		SupportsWordLevel:   true,
		SupportsDiarization: true,
	}
}

func (m *MockChunkTranscriber) ValidateConfiguration() error {
	return nil
}

// SegmentIndex parses the index out of a segment file path.
func SegmentIndex(path string) (int, error) {
	match := segmentIndexPattern.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return 0, fmt.Errorf("not a segment file: %s", path)
	}
	return strconv.Atoi(match[1])
}
