package provider

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// AudioFormat defines supported audio formats
type AudioFormat string

const (
	FormatWAV  AudioFormat = "wav"
	FormatMP3  AudioFormat = "mp3"
	FormatM4A  AudioFormat = "m4a"
	FormatFLAC AudioFormat = "flac"
	FormatOGG  AudioFormat = "ogg"
	FormatWEBM AudioFormat = "webm"
	FormatMP4  AudioFormat = "mp4"
)

// ProviderType defines the type of transcription provider
type ProviderType string

const (
	ProviderTypeLocal  ProviderType = "local"
	ProviderTypeRemote ProviderType = "remote"
)

// ChunkRequest describes one segment submission.
type ChunkRequest struct {
	FilePath string `json:"file_path"`

	LanguageCode   string `json:"language_code,omitempty"` // ISO 639-1 or 639-3, empty for auto-detect
	NumSpeakers    int    `json:"num_speakers,omitempty"`
	Diarize        bool   `json:"diarize"`
	TagAudioEvents bool   `json:"tag_audio_events"`

	// Model overrides the provider's default model when set.
	Model string `json:"model,omitempty"`

	// AudioSeconds is the segment length, used for metrics only.
	AudioSeconds float64 `json:"-"`
}

// ProviderInfo contains metadata about a transcription provider
type ProviderInfo struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Type        ProviderType `json:"type"`
	Version     string       `json:"version,omitempty"`

	SupportedFormats []AudioFormat `json:"supported_formats"`
	MaxFileSizeMB    int           `json:"max_file_size_mb,omitempty"` // 0 means no limit

	SupportsWordLevel   bool `json:"supports_word_level"`
	SupportsDiarization bool `json:"supports_diarization"`
	SupportsAudioEvents bool `json:"supports_audio_events"`

	RequiresAPIKey bool   `json:"requires_api_key"`
	APIKeyEnv      string `json:"api_key_env,omitempty"`

	DefaultModel    string   `json:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty"`
}

// TranscriptionError is a provider failure with a machine-readable code.
type TranscriptionError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Provider    string   `json:"provider"`
	StatusCode  int      `json:"status_code,omitempty"`
	Retryable   bool     `json:"retryable"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (e *TranscriptionError) Error() string {
	if e.Provider == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrorCode returns the code of a TranscriptionError in err's chain, or
// "unknown".
func ErrorCode(err error) string {
	var te *TranscriptionError
	if errors.As(err, &te) {
		return te.Code
	}
	return "unknown"
}

// Validation helpers

// IsValidAudioFormat checks if the given format is supported
func IsValidAudioFormat(format string) bool {
	switch AudioFormat(format) {
	case FormatWAV, FormatMP3, FormatM4A, FormatFLAC, FormatOGG, FormatWEBM, FormatMP4:
		return true
	default:
		return false
	}
}

// GetAudioFormatFromFilename extracts audio format from filename
func GetAudioFormatFromFilename(filename string) AudioFormat {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !IsValidAudioFormat(ext) {
		return ""
	}
	return AudioFormat(ext)
}
