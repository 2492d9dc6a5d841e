package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "reqforge" {
		t.Errorf("expected Name=reqforge, got %s", cfg.Name)
	}
	if cfg.LLM.Provider != "deepseek" {
		t.Errorf("expected Provider=deepseek, got %s", cfg.LLM.Provider)
	}
	if cfg.Flow.MaxIterations != 5 {
		t.Errorf("expected MaxIterations=5, got %d", cfg.Flow.MaxIterations)
	}
	if cfg.Eval.Workers != 4 {
		t.Errorf("expected Workers=4, got %d", cfg.Eval.Workers)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = "sk-test"
	cfg.Flow.MaxIterations = 3

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LLM.Provider != "gemini" {
		t.Errorf("expected Provider=gemini, got %s", loaded.LLM.Provider)
	}
	if loaded.LLM.APIKey != "sk-test" {
		t.Errorf("expected APIKey=sk-test, got %s", loaded.LLM.APIKey)
	}
	if loaded.Flow.MaxIterations != 3 {
		t.Errorf("expected MaxIterations=3, got %d", loaded.Flow.MaxIterations)
	}
}

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Flow.MaxIterations != 5 {
		t.Errorf("expected default MaxIterations=5, got %d", cfg.Flow.MaxIterations)
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.GetTimeout().Seconds() != 120 {
		t.Errorf("expected 120s timeout, got %v", cfg.GetTimeout())
	}

	cfg.LLM.Timeout = "garbage"
	if cfg.GetTimeout().Seconds() != 120 {
		t.Errorf("expected fallback 120s timeout, got %v", cfg.GetTimeout())
	}

	cfg.Eval.CaseTimeout = "3s"
	if cfg.GetCaseTimeout().Seconds() != 3 {
		t.Errorf("expected 3s case timeout, got %v", cfg.GetCaseTimeout())
	}
}
