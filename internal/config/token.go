package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const (
	serviceName   = "brandlens"
	apiKeyAccount = "openai_api_key"
	tokenAccount  = "api_token"
)

// SecretStore abstracts the platform secret storage: macOS Keychain on
// darwin, a permission-restricted secrets file elsewhere.
type SecretStore interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

type keychain struct{}

// NewKeychain returns the platform-native secret store.
func NewKeychain() SecretStore {
	return keychain{}
}

func (keychain) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (keychain) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}

// GetAPIToken resolves the bearer token protecting the HTTP API.
// Precedence: BRANDLENS_API_TOKEN env var, then the secret store. If
// neither holds a token, a random one is generated and persisted so
// the server and CLI agree across restarts.
func GetAPIToken(kc SecretStore) (string, error) {
	if tok := os.Getenv("BRANDLENS_API_TOKEN"); tok != "" {
		return tok, nil
	}

	if tok, err := kc.Get(serviceName, tokenAccount); err == nil && tok != "" {
		return tok, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating API token: %w", err)
	}
	tok := hex.EncodeToString(buf)

	if err := kc.Set(serviceName, tokenAccount, tok); err != nil {
		return "", fmt.Errorf("persisting API token: %w", err)
	}
	return tok, nil
}
