package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"shop-assistant/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "mode: server\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Catalog.Path != "data/products.json" {
		t.Errorf("catalog path: got %q", cfg.Catalog.Path)
	}
	if cfg.STT.Provider != "whisper" {
		t.Errorf("stt provider: got %q", cfg.STT.Provider)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("llm provider: got %q", cfg.LLM.Provider)
	}
	if cfg.TTS.Voice != "nova" {
		t.Errorf("voice: got %q", cfg.TTS.Voice)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults: got %+v", cfg.Log)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-test-123")

	path := writeConfig(t, "anthropic:\n  api_key: ${TEST_ANTHROPIC_KEY}\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-test-123" {
		t.Errorf("api key: got %q", cfg.Anthropic.APIKey)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BUCKET", "bucket-from-env")
	t.Setenv("LLM_MODEL_ID", "model-from-env")
	t.Setenv("TTS_VOICE_ID", "voz")
	t.Setenv("SERVICE_REGION", "eu-west-1")

	path := writeConfig(t, "storage:\n  bucket: bucket-from-yaml\nllm:\n  model: model-from-yaml\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Storage.Bucket != "bucket-from-env" {
		t.Errorf("bucket: got %q", cfg.Storage.Bucket)
	}
	if cfg.LLM.Model != "model-from-env" {
		t.Errorf("model: got %q", cfg.LLM.Model)
	}
	if cfg.TTS.Voice != "voz" {
		t.Errorf("voice: got %q", cfg.TTS.Voice)
	}
	if cfg.STT.Region != "eu-west-1" || cfg.Storage.Region != "eu-west-1" {
		t.Errorf("regions: stt=%q storage=%q", cfg.STT.Region, cfg.Storage.Region)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
