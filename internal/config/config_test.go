package config

import (
	"fmt"
	"strings"
	"testing"
)

type fakeBackend struct {
	strings map[string]string
	ints    map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		strings: make(map[string]string),
		ints:    make(map[string]int),
	}
}

func (b *fakeBackend) GetString(key string) (string, bool, error) {
	v, ok := b.strings[key]
	return v, ok, nil
}

func (b *fakeBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.ints[key]
	return v, ok, nil
}

func (b *fakeBackend) SetString(key, val string) error {
	b.strings[key] = val
	return nil
}

func (b *fakeBackend) SetInt(key string, val int) error {
	b.ints[key] = val
	return nil
}

func (b *fakeBackend) Delete(key string) error {
	delete(b.strings, key)
	delete(b.ints, key)
	return nil
}

type fakeSecrets struct {
	data map[string]string
}

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{data: make(map[string]string)}
}

func (s *fakeSecrets) Get(service, account string) (string, error) {
	v, ok := s.data[service+"/"+account]
	if !ok {
		return "", fmt.Errorf("account %q not found in service %q", account, service)
	}
	return v, nil
}

func (s *fakeSecrets) Set(service, account, value string) error {
	s.data[service+"/"+account] = value
	return nil
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BRANDLENS_OPENAI_API_KEY", "sk-test")

	cfg, err := loadWith(newFakeBackend(), newFakeSecrets())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("LLM.Temperature = %v, want 0.7", cfg.LLM.Temperature)
	}
	if !cfg.Worker.Enabled {
		t.Error("Worker.Enabled = false, want true")
	}
	if cfg.Worker.PollInterval != "500ms" {
		t.Errorf("Worker.PollInterval = %q, want 500ms", cfg.Worker.PollInterval)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
}

func TestLoadBackendValues(t *testing.T) {
	t.Setenv("BRANDLENS_OPENAI_API_KEY", "sk-test")

	b := newFakeBackend()
	b.ints["server.port"] = 8080
	b.strings["log.level"] = "debug"
	b.strings["worker.enabled"] = "false"
	b.strings["llm.temperature"] = "0.2"

	cfg, err := loadWith(b, newFakeSecrets())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Worker.Enabled {
		t.Error("Worker.Enabled = true, want false")
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("LLM.Temperature = %v, want 0.2", cfg.LLM.Temperature)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("BRANDLENS_OPENAI_API_KEY", "sk-test")
	t.Setenv("BRANDLENS_SERVER_PORT", "9090")
	t.Setenv("BRANDLENS_LLM_TEMPERATURE", "1.1")

	b := newFakeBackend()
	b.ints["server.port"] = 8080
	b.strings["llm.temperature"] = "0.2"

	cfg, err := loadWith(b, newFakeSecrets())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want env value 9090", cfg.Server.Port)
	}
	if cfg.LLM.Temperature != 1.1 {
		t.Errorf("LLM.Temperature = %v, want env value 1.1", cfg.LLM.Temperature)
	}
}

func TestInvalidEnvValueKeepsDefault(t *testing.T) {
	t.Setenv("BRANDLENS_OPENAI_API_KEY", "sk-test")
	t.Setenv("BRANDLENS_SERVER_PORT", "not-a-port")

	cfg, err := loadWith(newFakeBackend(), newFakeSecrets())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want default 4000", cfg.Server.Port)
	}
}

func TestAPIKeyFromSecretStore(t *testing.T) {
	t.Setenv("BRANDLENS_OPENAI_API_KEY", "")

	kc := newFakeSecrets()
	if err := kc.Set(serviceName, apiKeyAccount, "sk-keychain"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadWith(newFakeBackend(), kc)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.LLM.OpenAIAPIKey != "sk-keychain" {
		t.Errorf("OpenAIAPIKey = %q, want sk-keychain", cfg.LLM.OpenAIAPIKey)
	}
}

func TestMissingAPIKeyErrors(t *testing.T) {
	t.Setenv("BRANDLENS_OPENAI_API_KEY", "")

	_, err := loadWith(newFakeBackend(), newFakeSecrets())
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "BRANDLENS_OPENAI_API_KEY") {
		t.Errorf("error %q should mention the env var", err)
	}
}

func TestGetAPITokenFromEnv(t *testing.T) {
	t.Setenv("BRANDLENS_API_TOKEN", "env-token")

	tok, err := GetAPIToken(newFakeSecrets())
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if tok != "env-token" {
		t.Errorf("token = %q, want env-token", tok)
	}
}

func TestGetAPITokenGeneratesAndPersists(t *testing.T) {
	t.Setenv("BRANDLENS_API_TOKEN", "")

	kc := newFakeSecrets()
	tok, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if len(tok) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(tok))
	}

	again, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken (second call): %v", err)
	}
	if again != tok {
		t.Errorf("second call returned %q, want persisted %q", again, tok)
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	for _, info := range ShowAll(cfg) {
		if info.Key == "llm.openai_api_key" {
			t.Error("ShowAll exposed a secret key")
		}
	}
}

func TestValidKeys(t *testing.T) {
	keys := ValidKeys()
	want := map[string]bool{
		"server.port":          false,
		"llm.base_url":         false,
		"llm.temperature":      false,
		"storage.data_dir":     false,
		"worker.enabled":       false,
		"worker.poll_interval": false,
		"log.level":            false,
	}
	for _, k := range keys {
		if _, ok := want[k]; ok {
			want[k] = true
		}
		if k == "llm.openai_api_key" {
			t.Error("ValidKeys includes a secret key")
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("ValidKeys missing %q", k)
		}
	}
}
