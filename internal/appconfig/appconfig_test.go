package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"models": [
			{"id": "gpt-4o", "name": "GPT-4o", "provider": "openai", "apiModel": "gpt-4o", "enabled": true}
		]
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.RequestTimeout(); got != 60*time.Second {
		t.Fatalf("expected default timeout 60s, got %v", got)
	}
	if got := cfg.RetryAttempts(); got != 3 {
		t.Fatalf("expected default retries 3, got %d", got)
	}
	if got := cfg.DriftSignificanceLevel(); got != 0.05 {
		t.Fatalf("expected default significance 0.05, got %v", got)
	}
	if got := cfg.DriftMinEffectSize(); got != 0.2 {
		t.Fatalf("expected default min effect size 0.2, got %v", got)
	}
	if got := cfg.DataDirPath(); got != "data" {
		t.Fatalf("expected default data dir, got %q", got)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `{
		"models": [
			{"id": "x", "provider": "nope", "apiModel": "x", "enabled": true}
		]
	}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadRejectsDuplicateModelIDs(t *testing.T) {
	path := writeConfig(t, `{
		"models": [
			{"id": "a", "provider": "openai", "apiModel": "m"},
			{"id": "a", "provider": "mistral", "apiModel": "m"}
		]
	}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate model ids")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestModelCost(t *testing.T) {
	m := Model{InputCostPerMTok: 3.0, OutputCostPerMTok: 15.0}
	got := m.Cost(1000, 2000)
	want := 3.0*1000/1e6 + 15.0*2000/1e6
	if got != want {
		t.Fatalf("Cost(1000,2000) = %v, want %v", got, want)
	}
}

func TestLoadCredentialsMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := Config{Models: []Model{
		{ID: "gpt-4o", Provider: ProviderOpenAI, APIModel: "gpt-4o", Enabled: true},
	}}
	if err := LoadCredentials(cfg); err == nil {
		t.Fatal("expected missing credential error")
	}
}

func TestLoadCredentialsIgnoresDisabledModels(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	cfg := Config{Models: []Model{
		{ID: "mistral-large", Provider: ProviderMistral, APIModel: "m", Enabled: false},
	}}
	if err := LoadCredentials(cfg); err != nil {
		t.Fatalf("disabled model should not require credentials: %v", err)
	}
}
