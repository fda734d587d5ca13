package whisper

import (
	"fmt"

	"scribe-transcriber/internal/app/api/provider"
)

// ProviderName is the registry key of the OpenAI Whisper provider.
const ProviderName = "openai"

func init() {
	provider.RegisterProvider(ProviderName, createOpenAIProvider)
}

// createOpenAIProvider creates an OpenAI Whisper provider from configuration
func createOpenAIProvider(config map[string]interface{}) (provider.ChunkTranscriber, error) {
	settings, apiKey := provider.SplitConfig(config)
	if apiKey == "" {
		return nil, fmt.Errorf("openai provider requires 'api_key' in auth configuration")
	}

	providerConfig := OpenAIProviderConfig{
		APIKey: apiKey,
	}
	if model, ok := settings["model"].(string); ok {
		providerConfig.Model = model
	}
	if prompt, ok := settings["prompt"].(string); ok {
		providerConfig.Prompt = prompt
	}
	if temperature, ok := settings["temperature"].(float64); ok {
		providerConfig.Temperature = float32(temperature)
	}
	if baseURL, ok := settings["base_url"].(string); ok {
		providerConfig.BaseURL = baseURL
	}
	if maxSize, ok := settings["max_file_size_mb"].(int); ok {
		providerConfig.MaxSizeMB = maxSize
	}

	return NewRemoteTranscriber(providerConfig), nil
}
