package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envconfig "scribe-transcriber/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `
transcribe:
  language: eng
  diarize: false
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "eng", config.Transcribe.Language)
	assert.False(t, config.Transcribe.Diarize)
	assert.True(t, config.Transcribe.TagAudioEvents)
	assert.Equal(t, 2, config.Transcribe.NumSpeakers)
	assert.Equal(t, 45, config.Transcribe.SegmentMinutes)
	assert.Equal(t, "elevenlabs", config.DefaultProvider)
	assert.NotNil(t, config.Providers)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_SCRIBE_KEY", "from-env")
	path := writeConfig(t, `
default_provider: openai
providers:
  openai:
    auth:
      api_key: ${TEST_SCRIBE_KEY}
    settings:
      model: whisper-1
      temperature: 0.2
`)

	config, err := Load(path)
	require.NoError(t, err)

	settings, apiKey := config.ProviderSettings("openai", &envconfig.APIKeys{OpenAI: "ignored"})
	assert.Equal(t, "from-env", apiKey)
	assert.Equal(t, "whisper-1", settings["model"])
	assert.Equal(t, 0.2, settings["temperature"])
}

func TestProviderSettingsFallsBackToEnvironmentKey(t *testing.T) {
	settings, apiKey := Default().ProviderSettings("elevenlabs", &envconfig.APIKeys{ElevenLabs: "env-key"})

	assert.Nil(t, settings)
	assert.Equal(t, "env-key", apiKey)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "config file not found")

	_, err = Load(writeConfig(t, "transcribe: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse YAML")

	tests := map[string]string{
		"negative speakers": "transcribe:\n  num_speakers: -1\n",
		"zero segment":      "transcribe:\n  segment_minutes: 0\n",
		"bad format":        "transcribe:\n  format: srt\n",
		"bad base url":      "providers:\n  elevenlabs:\n    settings:\n      base_url: api.example.com\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("SCRIBE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	config, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), config)

	path := writeConfig(t, "transcribe:\n  output_dir: out\n")
	t.Setenv("SCRIBE_CONFIG", path)
	config, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "out", config.Transcribe.OutputDir)

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "explicit.yaml"))
	assert.Error(t, err)
}
