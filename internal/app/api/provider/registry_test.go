package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndCreateProvider(t *testing.T) {
	var received map[string]interface{}
	RegisterProvider("test_stub", func(config map[string]interface{}) (ChunkTranscriber, error) {
		received = config
		return &stubTranscriber{}, nil
	})

	assert.Contains(t, ListRegisteredProviders(), "test_stub")

	p, err := CreateProvider("test_stub", NewProviderConfig(map[string]interface{}{"model": "m1"}, "key-123"))
	require.NoError(t, err)
	assert.Equal(t, "stub", p.GetProviderInfo().Name)

	settings, apiKey := SplitConfig(received)
	assert.Equal(t, "key-123", apiKey)
	assert.Equal(t, "m1", settings["model"])
}

func TestCreateProviderUnknown(t *testing.T) {
	_, err := CreateProvider("does_not_exist", NewProviderConfig(nil, ""))
	assert.Error(t, err)
}

func TestCreateProviderCreatorError(t *testing.T) {
	RegisterProvider("test_broken", func(map[string]interface{}) (ChunkTranscriber, error) {
		return nil, errors.New("missing api key")
	})

	_, err := CreateProvider("test_broken", NewProviderConfig(nil, ""))
	assert.EqualError(t, err, "missing api key")
}

func TestSplitConfigDefaults(t *testing.T) {
	settings, apiKey := SplitConfig(map[string]interface{}{})
	assert.NotNil(t, settings)
	assert.Empty(t, apiKey)

	cfg := NewProviderConfig(nil, "k")
	settings, _ = SplitConfig(cfg)
	assert.Empty(t, settings)
}

func TestListRegisteredProvidersSorted(t *testing.T) {
	RegisterProvider("zz_stub", func(map[string]interface{}) (ChunkTranscriber, error) { return &stubTranscriber{}, nil })
	RegisterProvider("aa_stub", func(map[string]interface{}) (ChunkTranscriber, error) { return &stubTranscriber{}, nil })

	names := ListRegisteredProviders()
	assert.IsIncreasing(t, names)
}

func TestGetAudioFormatFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		expected AudioFormat
	}{
		{"segment_000.mp3", FormatMP3},
		{"Talk.M4A", FormatM4A},
		{"video.mp4", FormatMP4},
		{"notes.txt", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetAudioFormatFromFilename(tt.filename))
		})
	}
}
