package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Clinic.Phone == "" {
		t.Fatalf("expected default clinic phone")
	}
	if cfg.Flow.Timeout != 2*time.Minute {
		t.Fatalf("unexpected flow timeout: %v", cfg.Flow.Timeout)
	}
	if cfg.Flow.MaxConcurrency != 4 || cfg.Flow.MaxQueued != 100 {
		t.Fatalf("unexpected concurrency defaults: %+v", cfg.Flow)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9090"
llm:
  model: file-model
  max_tokens: 2048
vision:
  model: gemini-file
flow:
  timeout: 45s
clinic:
  name: Test Clinic
  phone: "0100 000 0000"
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("OPENAI_MODEL_NAME", "env-model")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("CLINIC_PHONE", "0200 111 2222")
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("ADMIN_TOKEN", "admin-secret")

	cfg := Load(path)
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from file, got %s", cfg.Server.Port)
	}
	if cfg.LLM.Model != "env-model" {
		t.Fatalf("expected env model override, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 2048 {
		t.Fatalf("expected max tokens from file, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.Vision.APIKey != "gem-key" || cfg.Vision.Model != "gemini-file" {
		t.Fatalf("unexpected vision config: %+v", cfg.Vision)
	}
	if cfg.Flow.Timeout != 45*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Flow.Timeout)
	}
	if cfg.Clinic.Name != "Test Clinic" || cfg.Clinic.Phone != "0200 111 2222" {
		t.Fatalf("unexpected clinic config: %+v", cfg.Clinic)
	}
	if cfg.Database.Type != "mysql" {
		t.Fatalf("expected db type override, got %s", cfg.Database.Type)
	}
	if cfg.Server.AdminToken != "admin-secret" {
		t.Fatalf("expected admin token from env, got %q", cfg.Server.AdminToken)
	}
	// 文件未设置的字段保留默认值
	if cfg.Clinic.Address == "" {
		t.Fatalf("expected default address to survive partial file")
	}
}
