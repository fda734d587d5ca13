package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/samber/lo"

	"scribe-transcriber/internal/app/api/provider"
	"scribe-transcriber/internal/app/model"
)

const (
	defaultBaseURL   = "https://api.elevenlabs.io/v1"
	defaultModel     = "scribe_v1"
	defaultTimeout   = 30 * 60 // a 45 minute segment can take several minutes
	defaultMaxSizeMB = 1024
)

// ScribeProvider transcribes segments with the ElevenLabs Scribe speech-to-text API.
type ScribeProvider struct {
	config ScribeConfig
	client *http.Client
}

// ScribeConfig represents configuration for the ElevenLabs Scribe provider
type ScribeConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	Timeout   int    `yaml:"timeout_sec"`
	MaxSizeMB int    `yaml:"max_file_size_mb"`
}

// scribeResponse is the body returned by POST /speech-to-text
type scribeResponse struct {
	LanguageCode        string       `json:"language_code"`
	LanguageProbability float64      `json:"language_probability"`
	Text                string       `json:"text"`
	Words               []scribeWord `json:"words"`
}

type scribeWord struct {
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Type      string  `json:"type"`
	SpeakerID *string `json:"speaker_id"`
}

// NewScribeProvider creates a new ElevenLabs Scribe provider
func NewScribeProvider(config ScribeConfig) *ScribeProvider {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxSizeMB == 0 {
		config.MaxSizeMB = defaultMaxSizeMB
	}

	return &ScribeProvider{
		config: config,
		client: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

// NewScribeProviderFromSettings creates a provider from generic settings
func NewScribeProviderFromSettings(settings map[string]interface{}, apiKey string) (*ScribeProvider, error) {
	config := ScribeConfig{
		APIKey: apiKey,
	}

	if baseURL, ok := settings["base_url"].(string); ok {
		config.BaseURL = baseURL
	}
	if model, ok := settings["model"].(string); ok {
		config.Model = model
	}
	if timeout, ok := settings["timeout_sec"].(int); ok {
		config.Timeout = timeout
	}
	if maxSize, ok := settings["max_file_size_mb"].(int); ok {
		config.MaxSizeMB = maxSize
	}

	return NewScribeProvider(config), nil
}

// TranscribeChunk uploads one segment and returns its word-level result.
func (sp *ScribeProvider) TranscribeChunk(ctx context.Context, request *provider.ChunkRequest) (*model.ChunkTranscription, error) {
	if request.FilePath == "" {
		return nil, sp.newError("invalid_input", "input file path is required", false)
	}

	if provider.GetAudioFormatFromFilename(request.FilePath) == "" {
		return nil, sp.newError("unsupported_format", fmt.Sprintf("unsupported audio format: %s", filepath.Ext(request.FilePath)), false)
	}

	fileInfo, err := os.Stat(request.FilePath)
	if os.IsNotExist(err) {
		return nil, sp.newError("file_not_found", fmt.Sprintf("input file not found: %s", request.FilePath), false)
	}
	if err != nil {
		return nil, sp.newError("file_open_error", err.Error(), false)
	}

	if fileInfo.Size() > int64(sp.config.MaxSizeMB)*1024*1024 {
		e := sp.newError("file_too_large", fmt.Sprintf("file size exceeds %dMB limit", sp.config.MaxSizeMB), false)
		e.Suggestions = []string{"Use a shorter --segment-minutes value"}
		return nil, e
	}

	httpReq, err := sp.createHTTPRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	resp, err := sp.client.Do(httpReq)
	if err != nil {
		return nil, sp.newError("network_error", fmt.Sprintf("failed to call ElevenLabs API: %v", err), true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, sp.handleHTTPError(resp)
	}

	var body scribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, sp.newError("response_parse_error", fmt.Sprintf("failed to parse API response: %v", err), false)
	}

	return &model.ChunkTranscription{
		Text:                body.Text,
		LanguageCode:        body.LanguageCode,
		LanguageProbability: body.LanguageProbability,
		Words:               convertWords(body.Words),
	}, nil
}

// createHTTPRequest builds the multipart upload for one segment
func (sp *ScribeProvider) createHTTPRequest(ctx context.Context, request *provider.ChunkRequest) (*http.Request, error) {
	file, err := os.Open(request.FilePath)
	if err != nil {
		return nil, sp.newError("file_open_error", fmt.Sprintf("failed to open audio file: %v", err), false)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(request.FilePath))
	if err != nil {
		return nil, sp.newError("form_creation_error", fmt.Sprintf("failed to create form: %v", err), false)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, sp.newError("file_copy_error", fmt.Sprintf("failed to copy file data: %v", err), false)
	}

	fields := [][2]string{
		{"model_id", lo.Ternary(request.Model != "", request.Model, sp.config.Model)},
		{"diarize", strconv.FormatBool(request.Diarize)},
		{"tag_audio_events", strconv.FormatBool(request.TagAudioEvents)},
		{"timestamps_granularity", "word"},
	}
	if request.LanguageCode != "" {
		fields = append(fields, [2]string{"language_code", request.LanguageCode})
	}
	if request.NumSpeakers > 0 {
		fields = append(fields, [2]string{"num_speakers", strconv.Itoa(request.NumSpeakers)})
	}

	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, sp.newError("form_field_error", fmt.Sprintf("failed to add %s field: %v", f[0], err), false)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, sp.newError("form_creation_error", fmt.Sprintf("failed to finalize form: %v", err), false)
	}

	url := fmt.Sprintf("%s/speech-to-text", sp.config.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, sp.newError("request_creation_error", fmt.Sprintf("failed to create HTTP request: %v", err), false)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("xi-api-key", sp.config.APIKey)
	req.Header.Set("User-Agent", "scribe-transcriber/1.0")

	return req, nil
}

// handleHTTPError handles HTTP error responses
func (sp *ScribeProvider) handleHTTPError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var e *provider.TranscriptionError
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		e = sp.newError("authentication_failed", "ElevenLabs API key is invalid or missing", false)
		e.Suggestions = []string{"Check your ELEVENLABS_API_KEY environment variable"}
	case http.StatusTooManyRequests:
		e = sp.newError("rate_limit_exceeded", "ElevenLabs API rate limit exceeded", true)
		e.Suggestions = []string{"Wait a moment and try again"}
	case http.StatusRequestEntityTooLarge:
		e = sp.newError("file_too_large", "Audio file is too large", false)
		e.Suggestions = []string{"Use a shorter --segment-minutes value"}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		e = sp.newError("invalid_request", fmt.Sprintf("Invalid request: %s", string(body)), false)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		e = sp.newError("server_error", "ElevenLabs server error", true)
	default:
		e = sp.newError("unknown_error", fmt.Sprintf("Unexpected HTTP status %d: %s", resp.StatusCode, string(body)), true)
	}
	e.StatusCode = resp.StatusCode
	return e
}

func (sp *ScribeProvider) newError(code, message string, retryable bool) *provider.TranscriptionError {
	return &provider.TranscriptionError{
		Code:      code,
		Message:   message,
		Provider:  ProviderName,
		Retryable: retryable,
	}
}

func convertWords(words []scribeWord) []model.Word {
	return lo.Map(words, func(w scribeWord, _ int) model.Word {
		return model.Word{
			Text:      w.Text,
			Start:     w.Start,
			End:       w.End,
			Type:      model.WordType(w.Type),
			SpeakerID: w.SpeakerID,
		}
	})
}

// GetProviderInfo returns the provider's capabilities
func (sp *ScribeProvider) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        ProviderName,
		DisplayName: "ElevenLabs Scribe",
		Type:        provider.ProviderTypeRemote,
		Version:     "1.0.0",
		SupportedFormats: []provider.AudioFormat{
			provider.FormatMP3,
			provider.FormatWAV,
			provider.FormatFLAC,
			provider.FormatM4A,
			provider.FormatOGG,
			provider.FormatWEBM,
			provider.FormatMP4,
		},
		MaxFileSizeMB:       sp.config.MaxSizeMB,
		SupportsWordLevel:   true,
		SupportsDiarization: true,
		SupportsAudioEvents: true,
		RequiresAPIKey:      true,
		APIKeyEnv:           "ELEVENLABS_API_KEY",
		DefaultModel:        defaultModel,
		AvailableModels:     []string{"scribe_v1", "scribe_v1_experimental"},
	}
}

// ValidateConfiguration validates the provider configuration
func (sp *ScribeProvider) ValidateConfiguration() error {
	if sp.config.APIKey == "" {
		return fmt.Errorf("ElevenLabs API key is required")
	}
	if sp.config.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if sp.config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if sp.config.MaxSizeMB < 0 {
		return fmt.Errorf("max file size must be positive")
	}
	return nil
}
