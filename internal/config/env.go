package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	apperrors "scribe-transcriber/internal/app/errors"
)

// Environment variables holding provider credentials.
const (
	ElevenLabsAPIKeyEnv = "ELEVENLABS_API_KEY"
	OpenAIAPIKeyEnv     = "OPENAI_API_KEY"
)

// envPaths are tried in order; the first one that exists is loaded.
var envPaths = []string{
	".env",
	".env.local",
	"../.env",
	"../../.env",
}

// APIKeys holds all API keys loaded from environment
type APIKeys struct {
	ElevenLabs string
	OpenAI     string
}

// LoadEnv loads environment variables from the first .env file found and
// returns its path. A missing file is not an error, the variables may be set
// system-wide. Variables already present in the environment win.
func LoadEnv() (string, error) {
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return "", fmt.Errorf("error loading %s file: %w", envPath, err)
		}
		return envPath, nil
	}
	return "", nil
}

// GetAPIKeys reads the API keys from the environment. Formats are checked
// only for the provider a run uses, see RequireAPIKey.
func GetAPIKeys() *APIKeys {
	return &APIKeys{
		ElevenLabs: strings.TrimSpace(os.Getenv(ElevenLabsAPIKeyEnv)),
		OpenAI:     strings.TrimSpace(os.Getenv(OpenAIAPIKeyEnv)),
	}
}

// For returns the key used by the named provider.
func (k *APIKeys) For(provider string) string {
	switch provider {
	case "elevenlabs":
		return k.ElevenLabs
	case "openai":
		return k.OpenAI
	default:
		return ""
	}
}

// RequireAPIKey fails fast when the provider's key is not configured or is
// malformed. Keys of other providers are not looked at.
func RequireAPIKey(apiKeys *APIKeys, provider string) (string, error) {
	key := apiKeys.For(provider)
	if key == "" {
		return "", apperrors.Wrapf(apperrors.ErrMissingAPIKey,
			"%s is not set, check your .env file or environment", EnvFor(provider))
	}
	if err := ValidateAPIKey(key, keyType(provider)); err != nil {
		return "", apperrors.Mark(err, apperrors.ErrInvalidAPIKey)
	}
	return key, nil
}

// keyType is the provider name ValidateAPIKey knows formats for.
func keyType(provider string) string {
	switch provider {
	case "openai":
		return "OpenAI"
	case "elevenlabs":
		return "ElevenLabs"
	default:
		return provider
	}
}

// EnvFor returns the environment variable that holds the provider's key.
func EnvFor(provider string) string {
	switch provider {
	case "openai":
		return OpenAIAPIKeyEnv
	case "elevenlabs":
		return ElevenLabsAPIKeyEnv
	default:
		return strings.ToUpper(provider) + "_API_KEY"
	}
}
