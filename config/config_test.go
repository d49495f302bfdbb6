package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"auto_sketch_enhancer/analyzer"
	"auto_sketch_enhancer/surface"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"server_addr":":9090","analysis_timeout_seconds":5}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerAddr != ":9090" || cfg.CanvasSize != 1024 || cfg.OutputDir != "output" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.LLM == nil || cfg.LLM.Provider != "gemini" {
		t.Fatalf("llm = %+v", cfg.LLM)
	}
	if cfg.AnalysisTimeout() != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.AnalysisTimeout())
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeConfig(t, `{not json`)); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Load(writeConfig(t, `{"canvas_size":-1}`)); err == nil {
		t.Fatal("expected error for negative canvas size")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CanvasSize != 1024 || cfg.ServerAddr != ":8080" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestAPIKeyPrecedence(t *testing.T) {
	t.Setenv("SKETCH_TEST_KEY", "from-env")

	cfg := Config{LLM: &LLMConfig{APIKey: "inline", APIKeyEnv: "SKETCH_TEST_KEY"}}
	if k, err := cfg.APIKey(); err != nil || k != "inline" {
		t.Fatalf("key = %q err = %v", k, err)
	}
	cfg.LLM.APIKey = ""
	if k, err := cfg.APIKey(); err != nil || k != "from-env" {
		t.Fatalf("key = %q err = %v", k, err)
	}
	cfg.LLM.APIKeyEnv = "SKETCH_TEST_KEY_UNSET"
	if _, err := cfg.APIKey(); err == nil {
		t.Fatal("expected error when no key is configured")
	}
}

func TestAPIKeyDefaultEnv(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "gem")
	if k, err := (Config{}).APIKey(); err != nil || k != "gem" {
		t.Fatalf("key = %q err = %v", k, err)
	}
}

func TestClientFactoryProviders(t *testing.T) {
	for _, p := range []string{"", "gemini", "openai", "mock"} {
		if _, err := (Config{LLM: &LLMConfig{Provider: p}}).ClientFactory(); err != nil {
			t.Fatalf("provider %q: %v", p, err)
		}
	}
	if _, err := (Config{LLM: &LLMConfig{Provider: "compatible"}}).ClientFactory(); err == nil {
		t.Fatal("expected error for compatible without base_url")
	}
	if _, err := (Config{LLM: &LLMConfig{Provider: "bard"}}).ClientFactory(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestMockProviderAnalyzes(t *testing.T) {
	cfg := Config{LLM: &LLMConfig{Provider: "mock"}}
	factory, err := cfg.ClientFactory()
	if err != nil {
		t.Fatal(err)
	}
	a, err := analyzer.New(cfg.KeyProvider(), factory)
	if err != nil {
		t.Fatal(err)
	}
	desc := a.Analyze(context.Background(), surface.Sketch{Data: []byte{1}, Format: "png"})
	if desc == "" || desc == analyzer.FallbackDescription {
		t.Fatalf("desc = %q", desc)
	}
}

func TestMockProviderConcurrentRequests(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "mock"
	factory, err := cfg.ClientFactory()
	if err != nil {
		t.Fatal(err)
	}
	first, _ := factory("")
	second, _ := factory("")
	if first == second {
		t.Fatal("each request should get its own mock client")
	}

	a, err := analyzer.New(cfg.KeyProvider(), factory)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	descs := make([]string, 8)
	for i := range descs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			descs[i] = a.Analyze(context.Background(), surface.Sketch{Data: []byte{1}, Format: "png"})
		}(i)
	}
	wg.Wait()
	for i, d := range descs {
		if d == "" || d == analyzer.FallbackDescription {
			t.Fatalf("request %d: desc = %q", i, d)
		}
	}
}
