package provider

import (
	"fmt"

	"github.com/samber/lo"
)

// NewProviderConfig builds the configuration map passed to provider creators.
func NewProviderConfig(settings map[string]interface{}, apiKey string) map[string]interface{} {
	return map[string]interface{}{
		"settings": lo.Ternary(settings == nil, map[string]interface{}{}, settings),
		"auth": map[string]interface{}{
			"api_key": apiKey,
		},
	}
}

// CreateProvider creates a registered provider and validates its configuration.
func CreateProvider(providerType string, config map[string]interface{}) (ChunkTranscriber, error) {
	creator, err := GetProviderCreator(providerType)
	if err != nil {
		return nil, fmt.Errorf("%s provider not registered: %w", providerType, err)
	}

	p, err := creator(config)
	if err != nil {
		return nil, err
	}

	if err := p.ValidateConfiguration(); err != nil {
		return nil, fmt.Errorf("provider validation failed: %w", err)
	}
	return p, nil
}

// SplitConfig extracts the settings and auth maps from a creator config.
func SplitConfig(config map[string]interface{}) (settings map[string]interface{}, apiKey string) {
	settings, ok := config["settings"].(map[string]interface{})
	if !ok {
		settings = make(map[string]interface{})
	}

	auth, ok := config["auth"].(map[string]interface{})
	if !ok {
		auth = make(map[string]interface{})
	}
	apiKey, _ = auth["api_key"].(string)
	return settings, apiKey
}
