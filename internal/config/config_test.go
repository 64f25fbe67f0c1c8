package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytscribe/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Whisper.APIKey = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Whisper.APIKey != "env-key" {
		t.Fatalf("expected api key from env, got %q", cfg.Whisper.APIKey)
	}
	if len(cfg.Captions.Languages) == 0 || cfg.Captions.Languages[0] != "en" {
		t.Fatalf("unexpected default languages: %v", cfg.Captions.Languages)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[paths]
output_dir = "` + filepath.Join(dir, "out") + `"
work_dir = "` + filepath.Join(dir, "work") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[captions]
languages = ["FR", "fr", " de "]

[whisper]
engine = "local"
local_model = "base"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	want := []string{"fr", "de"}
	if len(cfg.Captions.Languages) != len(want) {
		t.Fatalf("expected deduped languages %v, got %v", want, cfg.Captions.Languages)
	}
	for i, lang := range want {
		if cfg.Captions.Languages[i] != lang {
			t.Fatalf("language %d: want %q, got %q", i, lang, cfg.Captions.Languages[i])
		}
	}
	if cfg.WhisperUsesAPI() {
		t.Fatal("expected local engine")
	}
	if cfg.Whisper.LocalModel != "base" {
		t.Fatalf("unexpected local model %q", cfg.Whisper.LocalModel)
	}
}

func TestValidateRejectsBadEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Whisper.Engine = "cloud"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "whisper.engine") {
		t.Fatalf("expected engine validation error, got %v", err)
	}
}

func TestValidateRequiresAPIKeyForAPIEngine(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := config.Default()
	cfg.Whisper.Engine = config.EngineAPI
	cfg.Whisper.APIKey = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "whisper.api_key") {
		t.Fatalf("expected api key validation error, got %v", err)
	}
}

func TestValidateHeartbeatOrdering(t *testing.T) {
	cfg := config.Default()
	cfg.Whisper.APIKey = "k"
	cfg.Workflow.HeartbeatInterval = 30
	cfg.Workflow.HeartbeatTimeout = 30
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected heartbeat timeout validation error")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[whisper]") {
		t.Fatal("sample config missing whisper section")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
