package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		val, ok := env[key]
		return val, ok
	}
}

func TestNewDefaults(t *testing.T) {
	settings, err := New(mapLookup(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Stream.MaxDuration != 0 {
		t.Errorf("expected unbounded stream duration, got %s", settings.Stream.MaxDuration)
	}
	if settings.Stream.MaxTokens != 4096 {
		t.Errorf("expected 4096 max tokens, got %d", settings.Stream.MaxTokens)
	}
	if settings.Log.Level != "info" || settings.Log.Format != FormatConsole {
		t.Errorf("unexpected log defaults: %+v", settings.Log)
	}
	if len(settings.Providers) != len(builtinProviders) {
		t.Errorf("expected %d providers, got %d", len(builtinProviders), len(settings.Providers))
	}
	if got := settings.ConfiguredProviders(); len(got) != 0 {
		t.Errorf("expected no configured providers, got %v", got)
	}
}

func TestNewReadsProviderCredentials(t *testing.T) {
	settings, err := New(mapLookup(map[string]string{
		"ALIYUN_API_KEY":  "sk-ali",
		"HUOSHAN_API_KEY": "ark-key",
		"HUOSHAN_API_URL": "https://ark.example.com/api/v3",
		"GEMINI_API_KEY":  "  ",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := settings.Providers["aliyun"].APIKey; got != "sk-ali" {
		t.Errorf("expected aliyun key 'sk-ali', got %q", got)
	}
	huoshan, ok := settings.Provider("volcengine")
	if !ok {
		t.Fatal("expected alias 'volcengine' to resolve to huoshan")
	}
	if huoshan.BaseURL != "https://ark.example.com/api/v3" {
		t.Errorf("unexpected huoshan base URL %q", huoshan.BaseURL)
	}
	if got := settings.Providers["gemini"].APIKey; got != "" {
		t.Errorf("expected blank gemini key to be ignored, got %q", got)
	}

	configured := settings.ConfiguredProviders()
	if len(configured) != 2 || configured[0] != "aliyun" || configured[1] != "huoshan" {
		t.Errorf("unexpected configured providers: %v", configured)
	}
}

func TestNewStreamSettings(t *testing.T) {
	settings, err := New(mapLookup(map[string]string{
		EnvMaxDuration: "90s",
		EnvDebug:       "true",
		EnvMaxTokens:   "1024",
		EnvLogLevel:    "DEBUG",
		EnvLogFormat:   "json",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Stream.MaxDuration != 90*time.Second {
		t.Errorf("expected 90s, got %s", settings.Stream.MaxDuration)
	}
	if !settings.Stream.Debug {
		t.Error("expected debug to be enabled")
	}
	if settings.Stream.MaxTokens != 1024 {
		t.Errorf("expected 1024 max tokens, got %d", settings.Stream.MaxTokens)
	}
	if settings.Log.Level != "debug" || settings.Log.Format != FormatJSON {
		t.Errorf("unexpected log settings: %+v", settings.Log)
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	tests := map[string]string{
		EnvMaxDuration: "soon",
		EnvDebug:       "maybe",
		EnvMaxTokens:   "not-a-number",
		EnvLogFormat:   "xml",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			if _, err := New(mapLookup(map[string]string{key: val})); err == nil {
				t.Errorf("expected error for invalid %s", key)
			}
		})
	}

	if _, err := New(mapLookup(map[string]string{EnvMaxDuration: "-1s"})); err == nil {
		t.Error("expected error for negative stream duration")
	}
	if _, err := New(mapLookup(map[string]string{EnvMaxTokens: "0"})); err == nil {
		t.Error("expected error for zero max tokens")
	}
}

func TestNewLoadsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	yaml := `
providers:
  - id: local
    kind: openai_compatible
    base_url: http://localhost:11434/v1
    api_key_env: LOCAL_LLM_KEY
models:
  - id: llama3
    provider: local
    nickname: Llama
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	settings, err := New(mapLookup(map[string]string{
		EnvCatalog:      path,
		"LOCAL_LLM_KEY": "local-secret",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settings.Catalog.Models) != 1 || settings.Catalog.Models[0].Nickname != "Llama" {
		t.Errorf("unexpected catalog models: %+v", settings.Catalog.Models)
	}
	if got := settings.Providers["local"].APIKey; got != "local-secret" {
		t.Errorf("expected catalog provider key 'local-secret', got %q", got)
	}
}

func TestNewMissingCatalog(t *testing.T) {
	_, err := New(mapLookup(map[string]string{EnvCatalog: filepath.Join(t.TempDir(), "missing.yaml")}))
	if err == nil {
		t.Error("expected error for missing catalog file")
	}
}

func TestOverlay(t *testing.T) {
	lookup := Overlay(
		map[string]string{EnvLogLevel: "warn", EnvLogFormat: ""},
		mapLookup(map[string]string{EnvLogLevel: "debug", EnvLogFormat: "json"}),
	)

	if val, _ := lookup(EnvLogLevel); val != "warn" {
		t.Errorf("expected override 'warn', got %q", val)
	}
	if val, _ := lookup(EnvLogFormat); val != "json" {
		t.Errorf("expected empty override to fall through, got %q", val)
	}
	if _, ok := lookup("UNSET"); ok {
		t.Error("expected unset key to stay unset")
	}
}

func TestNormalizeProvider(t *testing.T) {
	cases := map[string]string{
		"Claude":    "anthropic",
		"google":    "gemini",
		"ark":       "huoshan",
		"DashScope": "aliyun",
		"qcloud":    "qcloud",
	}
	for in, want := range cases {
		if got := NormalizeProvider(in); got != want {
			t.Errorf("NormalizeProvider(%q) = %q, want %q", in, got, want)
		}
	}
}
