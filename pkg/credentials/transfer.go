package credentials

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ImportFromEnv stores keys found in the well-known environment variables
// for every supported provider. Returns the providers that were imported.
func (m *Manager) ImportFromEnv() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	var imported []string
	for _, provider := range SupportedProviders() {
		envVar := providerEnvVars[provider]
		if envVar == "" {
			continue
		}
		key := os.Getenv(envVar)
		if key == "" {
			continue
		}
		creds.Providers[provider] = ProviderCredential{APIKey: key}
		imported = append(imported, provider)
	}

	if len(imported) == 0 {
		return nil, nil
	}

	return imported, m.Save(creds)
}

// ImportFile merges keys from another credentials.toml into the store.
// Existing keys are overwritten by the imported file.
func (m *Manager) ImportFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	incoming := &Credentials{}
	if err := toml.Unmarshal(data, incoming); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}

	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	var imported []string
	for provider, pc := range incoming.Providers {
		if pc.APIKey == "" {
			continue
		}
		creds.Providers[provider] = pc
		imported = append(imported, provider)
	}

	if len(imported) == 0 {
		return nil, nil
	}

	return imported, m.Save(creds)
}

// ExportFile writes the current credential store to the given path with
// 0600 permissions, for moving keys between machines.
func (m *Manager) ExportFile(path string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	return nil
}
