package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"scribe-transcriber/internal/app/api/provider"
	"scribe-transcriber/internal/app/model"
)

// RemoteTranscriber transcribes segments with the OpenAI Whisper API. Whisper
// does not diarize, so every word comes back without a speaker id.
type RemoteTranscriber struct {
	client *openai.Client
	config OpenAIProviderConfig
}

// OpenAIProviderConfig represents configuration specific to OpenAI Whisper provider
type OpenAIProviderConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	Prompt      string  `yaml:"prompt"`
	BaseURL     string  `yaml:"base_url"`
	MaxSizeMB   int     `yaml:"max_file_size_mb"`
}

// defaultMaxSizeMB is the upload limit of the transcriptions endpoint.
const defaultMaxSizeMB = 25

// iso639 maps the three-letter codes accepted by Scribe to Whisper's two-letter codes.
var iso639 = map[string]string{
	"jpn": "ja",
	"eng": "en",
	"zho": "zh",
	"cmn": "zh",
	"kor": "ko",
	"fra": "fr",
	"deu": "de",
	"spa": "es",
	"ita": "it",
	"por": "pt",
	"rus": "ru",
}

// unspacedLanguages do not separate words with spaces.
var unspacedLanguages = map[string]bool{"ja": true, "zh": true, "th": true, "japanese": true, "chinese": true}

// NewRemoteTranscriber creates a new Whisper transcriber
func NewRemoteTranscriber(config OpenAIProviderConfig) *RemoteTranscriber {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	if config.Model == "" {
		config.Model = openai.Whisper1
	}
	if config.MaxSizeMB == 0 {
		config.MaxSizeMB = defaultMaxSizeMB
	}

	return &RemoteTranscriber{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// TranscribeChunk implements provider.ChunkTranscriber
func (rt *RemoteTranscriber) TranscribeChunk(ctx context.Context, request *provider.ChunkRequest) (*model.ChunkTranscription, error) {
	if request.FilePath == "" {
		return nil, newError("invalid_input", "input file path is required", false)
	}
	fileInfo, err := os.Stat(request.FilePath)
	if os.IsNotExist(err) {
		return nil, newError("file_not_found", fmt.Sprintf("input file not found: %s", request.FilePath), false)
	}
	if err != nil {
		return nil, newError("file_open_error", err.Error(), false)
	}
	if fileInfo.Size() > int64(rt.config.MaxSizeMB)*1024*1024 {
		e := newError("file_too_large", fmt.Sprintf("file size exceeds %dMB limit", rt.config.MaxSizeMB), false)
		e.Suggestions = []string{"Use a shorter --segment-minutes value"}
		return nil, e
	}

	audioRequest := openai.AudioRequest{
		Model:       rt.getModel(request),
		FilePath:    request.FilePath,
		Prompt:      rt.config.Prompt,
		Temperature: rt.config.Temperature,
		Language:    toWhisperLanguage(request.LanguageCode),
		Format:      openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	}

	resp, err := rt.client.CreateTranscription(ctx, audioRequest)
	if err != nil {
		return nil, handleAPIError(err)
	}

	language := resp.Language
	if language == "" {
		language = audioRequest.Language
	}

	words := make([]model.Word, 0, len(resp.Words)*2)
	spaced := !unspacedLanguages[strings.ToLower(language)]
	for i, w := range resp.Words {
		if spaced && i > 0 {
			words = append(words, model.Word{
				Text:  " ",
				Start: resp.Words[i-1].End,
				End:   w.Start,
				Type:  model.WordTypeSpacing,
			})
		}
		words = append(words, model.Word{
			Text:  w.Word,
			Start: w.Start,
			End:   w.End,
			Type:  model.WordTypeWord,
		})
	}

	return &model.ChunkTranscription{
		Text:         resp.Text,
		LanguageCode: language,
		// Whisper reports no detection confidence
		LanguageProbability: 0,
		Words:               words,
	}, nil
}

func (rt *RemoteTranscriber) getModel(request *provider.ChunkRequest) string {
	if request.Model != "" {
		return request.Model
	}
	return rt.config.Model
}

func toWhisperLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if mapped, ok := iso639[code]; ok {
		return mapped
	}
	return code
}

func newError(code, message string, retryable bool) *provider.TranscriptionError {
	return &provider.TranscriptionError{
		Code:      code,
		Message:   message,
		Provider:  ProviderName,
		Retryable: retryable,
	}
}

// handleAPIError converts OpenAI API errors to TranscriptionError
func handleAPIError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return newError("network_error", fmt.Sprintf("createTranscription failed: %v", err), true)
	}

	var e *provider.TranscriptionError
	switch apiErr.HTTPStatusCode {
	case 401:
		e = newError("authentication_failed", "OpenAI API key is invalid or missing", false)
		e.Suggestions = []string{"Check your OPENAI_API_KEY environment variable"}
	case 429:
		e = newError("rate_limit_exceeded", "OpenAI API rate limit exceeded", true)
		e.Suggestions = []string{"Wait a moment and try again"}
	case 413:
		e = newError("file_too_large", "Audio file is too large for OpenAI API", false)
		e.Suggestions = []string{fmt.Sprintf("Whisper accepts at most %dMB; use a shorter --segment-minutes value", defaultMaxSizeMB)}
	case 400:
		e = newError("invalid_request", fmt.Sprintf("Invalid request: %s", apiErr.Message), false)
	case 500, 502, 503, 504:
		e = newError("server_error", "OpenAI server error", true)
	default:
		e = newError("api_error", fmt.Sprintf("OpenAI API error: %v", apiErr.Message), true)
	}
	e.StatusCode = apiErr.HTTPStatusCode
	return e
}

// GetProviderInfo returns the provider's capabilities
func (rt *RemoteTranscriber) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        ProviderName,
		DisplayName: "OpenAI Whisper",
		Type:        provider.ProviderTypeRemote,
		Version:     "1.0.0",
		SupportedFormats: []provider.AudioFormat{
			provider.FormatMP3,
			provider.FormatWAV,
			provider.FormatM4A,
			provider.FormatWEBM,
			provider.FormatMP4,
		},
		MaxFileSizeMB:     rt.config.MaxSizeMB,
		SupportsWordLevel: true,
		RequiresAPIKey:    true,
		APIKeyEnv:         "OPENAI_API_KEY",
		DefaultModel:      openai.Whisper1,
		AvailableModels:   []string{openai.Whisper1},
	}
}

// ValidateConfiguration validates the provider configuration
func (rt *RemoteTranscriber) ValidateConfiguration() error {
	if rt.config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	if !strings.HasPrefix(rt.config.APIKey, "sk-") {
		return fmt.Errorf("invalid OpenAI API key format: must start with 'sk-'")
	}
	if rt.config.Temperature < 0 || rt.config.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1")
	}
	return nil
}
