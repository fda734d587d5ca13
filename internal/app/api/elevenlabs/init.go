package elevenlabs

import (
	"fmt"

	"scribe-transcriber/internal/app/api/provider"
)

// ProviderName is the registry key of the ElevenLabs Scribe provider.
const ProviderName = "elevenlabs"

func init() {
	provider.RegisterProvider(ProviderName, createElevenLabsProvider)
}

func createElevenLabsProvider(config map[string]interface{}) (provider.ChunkTranscriber, error) {
	settings, apiKey := provider.SplitConfig(config)
	if apiKey == "" {
		return nil, fmt.Errorf("elevenlabs provider requires 'api_key' in auth configuration")
	}

	return NewScribeProviderFromSettings(settings, apiKey)
}
