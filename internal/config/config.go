// Package config loads brandlens configuration from the platform-native
// backend, environment variables, and the platform secret store.
package config

import (
	"fmt"
)

type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Storage StorageConfig
	Worker  WorkerConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type LLMConfig struct {
	BaseURL      string
	OpenAIAPIKey string
	Temperature  float64
}

type StorageConfig struct {
	DataDir string
}

type WorkerConfig struct {
	Enabled      bool
	PollInterval string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Temperature: 0.7,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Worker: WorkerConfig{
			Enabled:      true,
			PollInterval: "500ms",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.brandlens.app) and
// secrets fall back to macOS Keychain. On Linux the backend is a JSON
// file at $XDG_CONFIG_HOME/brandlens/config.json and secrets live in a
// permission-restricted file under $XDG_DATA_HOME.
//
// Environment variables (BRANDLENS_*) override backend values on all
// platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), NewKeychain())
}

func loadWith(b ConfigBackend, kc SecretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for the API key if still empty.
	if cfg.LLM.OpenAIAPIKey == "" {
		if key, err := kc.Get(serviceName, apiKeyAccount); err == nil && key != "" {
			cfg.LLM.OpenAIAPIKey = key
		}
	}

	if cfg.LLM.OpenAIAPIKey == "" {
		msg := "missing required config: OpenAI API key. " +
			"Set it via environment variable BRANDLENS_OPENAI_API_KEY" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}

	return cfg, nil
}
