package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	envconfig "scribe-transcriber/internal/config"
)

// Config is the optional YAML defaults file. Command-line flags override
// every value in it.
type Config struct {
	DefaultProvider string                    `yaml:"default_provider"`
	Transcribe      TranscribeDefaults        `yaml:"transcribe"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
}

// TranscribeDefaults mirrors the transcribe command's flags
type TranscribeDefaults struct {
	Language       string `yaml:"language"`
	NumSpeakers    int    `yaml:"num_speakers"`
	Diarize        bool   `yaml:"diarize"`
	TagAudioEvents bool   `yaml:"tag_audio_events"`
	SegmentMinutes int    `yaml:"segment_minutes"`
	Format         string `yaml:"format"`
	OutputDir      string `yaml:"output_dir"`
	WorkDir        string `yaml:"work_dir"`
	MetricsFile    string `yaml:"metrics_file,omitempty"`
}

// ProviderConfig represents configuration for a single provider
type ProviderConfig struct {
	Auth     map[string]interface{} `yaml:"auth,omitempty"`
	Settings map[string]interface{} `yaml:"settings,omitempty"`
}

// Default returns the built-in defaults used when no file is given.
func Default() *Config {
	return &Config{
		DefaultProvider: "elevenlabs",
		Transcribe: TranscribeDefaults{
			Language:       "jpn",
			NumSpeakers:    2,
			Diarize:        true,
			TagAudioEvents: true,
			SegmentMinutes: 45,
			Format:         "text",
			OutputDir:      "transcripts",
			WorkDir:        "temp_audio_segments",
		},
		Providers: map[string]ProviderConfig{},
	}
}

// Load reads a YAML defaults file on top of Default. Keys missing from the
// file keep their default values.
func Load(configPath string) (*Config, error) {
	configPath = os.ExpandEnv(configPath)

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if config.Providers == nil {
		config.Providers = map[string]ProviderConfig{}
	}

	config.expandEnvironmentVariables()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadOrDefault loads configPath when set, otherwise the file at
// DefaultConfigPath if one exists, otherwise Default.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath != "" {
		return Load(configPath)
	}
	if path := DefaultConfigPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// expandEnvironmentVariables replaces "${NAME}" values in auth and settings
// with the variable's value.
func (c *Config) expandEnvironmentVariables() {
	for _, provider := range c.Providers {
		expandMap(provider.Auth)
		expandMap(provider.Settings)
	}
}

func expandMap(values map[string]interface{}) {
	for key, value := range values {
		strValue, ok := value.(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(strValue, "${") && strings.HasSuffix(strValue, "}") {
			envVar := strings.TrimSuffix(strings.TrimPrefix(strValue, "${"), "}")
			values[key] = os.Getenv(envVar)
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	t := c.Transcribe
	if t.NumSpeakers < 0 {
		return fmt.Errorf("num_speakers must not be negative")
	}
	if t.SegmentMinutes <= 0 {
		return fmt.Errorf("segment_minutes must be positive")
	}
	if t.Format != "text" && t.Format != "json" {
		return fmt.Errorf("format must be text or json, got %q", t.Format)
	}

	for name, provider := range c.Providers {
		if baseURL, ok := provider.Settings["base_url"].(string); ok {
			if err := envconfig.ValidateURL(baseURL, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProviderSettings returns the settings map and API key for the named
// provider. A key in the file wins over the environment.
func (c *Config) ProviderSettings(name string, keys *envconfig.APIKeys) (map[string]interface{}, string) {
	provider := c.Providers[name]

	apiKey, _ := provider.Auth["api_key"].(string)
	if apiKey == "" && keys != nil {
		apiKey = keys.For(name)
	}
	return provider.Settings, apiKey
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	if path := os.Getenv("SCRIBE_CONFIG"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".scribe-transcriber", "config.yaml")
}
