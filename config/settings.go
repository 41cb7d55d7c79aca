// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Per-provider credential and endpoint lookup
// - Loading the optional YAML model catalog

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LookupFunc returns the value of an environment variable and whether it was set.
type LookupFunc func(key string) (string, bool)

// Settings holds all application configuration. It is built once at startup.
type Settings struct {
	Providers   map[string]ProviderSettings
	Stream      StreamConfig
	Log         LogConfig
	CatalogPath string
	Catalog     Catalog
}

// ProviderSettings holds the secret and optional endpoint override of one provider.
type ProviderSettings struct {
	APIKey  string
	BaseURL string
}

// StreamConfig holds streaming request configuration.
type StreamConfig struct {
	MaxDuration time.Duration
	Debug       bool
	MaxTokens   int
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string
	Format      string
	OutputPaths []string
}

// Log formats accepted by LIARSBAR_LOG_FORMAT.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Environment variables read by New.
const (
	EnvMaxDuration = "LIARSBAR_STREAM_MAX_DURATION"
	EnvDebug       = "LIARSBAR_DEBUG"
	EnvLogLevel    = "LIARSBAR_LOG_LEVEL"
	EnvLogFormat   = "LIARSBAR_LOG_FORMAT"
	EnvCatalog     = "LIARSBAR_CATALOG"
	EnvMaxTokens   = "LIARSBAR_MAX_TOKENS"
)

// Built-in providers whose credentials are read from <NAME>_API_KEY and whose
// endpoint may be overridden with <NAME>_API_URL.
var builtinProviders = []string{"aliyun", "huoshan", "qcloud", "anthropic", "gemini"}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"dashscope":  "aliyun",
	"volcengine": "huoshan",
	"ark":        "huoshan",
	"hunyuan":    "qcloud",
	"claude":     "anthropic",
	"google":     "gemini",
}

// New creates settings from the variables visible through lookup.
// Returns an error if a variable holds an invalid value or the catalog cannot be loaded.
func New(lookup LookupFunc) (Settings, error) {
	env := envReader{lookup: lookup}

	maxDuration, err := env.getDuration(EnvMaxDuration, 0)
	if err != nil {
		return Settings{}, err
	}
	if maxDuration < 0 {
		return Settings{}, fmt.Errorf("invalid value for %s: %s: must not be negative", EnvMaxDuration, maxDuration)
	}

	debug, err := env.getBool(EnvDebug, false)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := env.getInt(EnvMaxTokens, 4096)
	if err != nil {
		return Settings{}, err
	}
	if maxTokens <= 0 {
		return Settings{}, fmt.Errorf("invalid value for %s: %d: must be positive", EnvMaxTokens, maxTokens)
	}

	format := strings.ToLower(env.getString(EnvLogFormat, FormatConsole))
	if format != FormatJSON && format != FormatConsole {
		return Settings{}, fmt.Errorf("invalid value for %s: %q: want %s or %s", EnvLogFormat, format, FormatJSON, FormatConsole)
	}

	settings := Settings{
		Providers: make(map[string]ProviderSettings, len(builtinProviders)),
		Stream: StreamConfig{
			MaxDuration: maxDuration,
			Debug:       debug,
			MaxTokens:   maxTokens,
		},
		Log: LogConfig{
			Level:       strings.ToLower(env.getString(EnvLogLevel, "info")),
			Format:      format,
			OutputPaths: []string{"stderr"},
		},
		CatalogPath: env.getString(EnvCatalog, ""),
	}

	for _, name := range builtinProviders {
		prefix := strings.ToUpper(name)
		settings.Providers[name] = ProviderSettings{
			APIKey:  env.getString(prefix+"_API_KEY", ""),
			BaseURL: env.getString(prefix+"_API_URL", ""),
		}
	}

	if settings.CatalogPath != "" {
		catalog, err := LoadCatalog(settings.CatalogPath)
		if err != nil {
			return Settings{}, err
		}
		settings.Catalog = catalog
		for _, p := range catalog.Providers {
			current := settings.Providers[p.ID]
			if p.APIKeyEnv != "" {
				current.APIKey = env.getString(p.APIKeyEnv, current.APIKey)
			}
			settings.Providers[p.ID] = current
		}
	}

	return settings, nil
}

// FromEnv creates settings from the process environment.
func FromEnv() (Settings, error) {
	return New(os.LookupEnv)
}

// Overlay returns a lookup that consults overrides before base. Empty
// override values are ignored so unset flags fall through to the environment.
func Overlay(overrides map[string]string, base LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		if val, ok := overrides[key]; ok && val != "" {
			return val, true
		}
		return base(key)
	}
}

// NormalizeProvider converts provider aliases to canonical names.
func NormalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// Provider returns the settings for a provider, accepting aliases.
func (s Settings) Provider(name string) (ProviderSettings, bool) {
	p, ok := s.Providers[NormalizeProvider(name)]
	return p, ok
}

// ConfiguredProviders returns the sorted names of providers with a credential set.
func (s Settings) ConfiguredProviders() []string {
	var result []string
	for name, p := range s.Providers {
		if p.APIKey != "" {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

// Environment variable helpers with proper error handling

type envReader struct {
	lookup LookupFunc
}

func (r envReader) getString(key, defaultVal string) string {
	val, ok := r.lookup(key)
	if !ok || strings.TrimSpace(val) == "" {
		return defaultVal
	}
	return strings.TrimSpace(val)
}

func (r envReader) getInt(key string, defaultVal int) (int, error) {
	val := r.getString(key, "")
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func (r envReader) getBool(key string, defaultVal bool) (bool, error) {
	val := r.getString(key, "")
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}

func (r envReader) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := r.getString(key, "")
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}
