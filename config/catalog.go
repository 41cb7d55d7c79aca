package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog lists providers and models added on top of the built-in set.
// Entries whose id matches a built-in replace it.
type Catalog struct {
	Providers []CatalogProvider `yaml:"providers"`
	Models    []CatalogModel    `yaml:"models"`
}

// CatalogProvider describes one provider endpoint. Kind is validated when the
// registry is built.
type CatalogProvider struct {
	ID             string         `yaml:"id"`
	Kind           string         `yaml:"kind"`
	BaseURL        string         `yaml:"base_url"`
	APIKeyEnv      string         `yaml:"api_key_env"`
	ExtraBody      map[string]any `yaml:"extra_body"`
	ThinkingBudget int64          `yaml:"thinking_budget"`
}

// CatalogModel maps a model id to its provider and display nickname.
type CatalogModel struct {
	ID       string `yaml:"id"`
	Provider string `yaml:"provider"`
	Nickname string `yaml:"nickname"`
}

// LoadCatalog reads a YAML catalog file. Unknown keys are rejected.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	catalog, err := ParseCatalog(raw)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(raw []byte) (Catalog, error) {
	var catalog Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i, p := range catalog.Providers {
		if p.ID == "" {
			return Catalog{}, fmt.Errorf("provider %d: missing id", i)
		}
		if p.Kind == "" {
			return Catalog{}, fmt.Errorf("provider %s: missing kind", p.ID)
		}
		if p.ThinkingBudget < 0 {
			return Catalog{}, fmt.Errorf("provider %s: thinking_budget must not be negative", p.ID)
		}
	}
	for i, m := range catalog.Models {
		if m.ID == "" {
			return Catalog{}, fmt.Errorf("model %d: missing id", i)
		}
		if m.Provider == "" {
			return Catalog{}, fmt.Errorf("model %s: missing provider", m.ID)
		}
	}
	return catalog, nil
}
