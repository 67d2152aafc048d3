package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Recognition.Language != "en-US" {
		t.Errorf("Language = %q, want en-US", cfg.Recognition.Language)
	}
	if cfg.Recognition.Model != "latest_long" {
		t.Errorf("Model = %q, want latest_long", cfg.Recognition.Model)
	}
	if !cfg.Recognition.Punctuation || !cfg.Recognition.Enhanced {
		t.Error("punctuation and enhanced should default to true")
	}
	if cfg.SpeechTimeout != 30*time.Second {
		t.Errorf("SpeechTimeout = %v, want 30s", cfg.SpeechTimeout)
	}
	if cfg.UploadMaxSize != 10*1024*1024 {
		t.Errorf("UploadMaxSize = %d", cfg.UploadMaxSize)
	}
	if cfg.AuthEnabled() {
		t.Error("auth should be disabled without a password hash")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("SPEECH_TIMEOUT", "5s")
	t.Setenv("DEFAULT_PUNCTUATION", "false")
	t.Setenv("OPERATOR_PASSWORD_HASH", "$2a$10$abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("DatabaseType = %q", cfg.DatabaseType)
	}
	if cfg.SpeechTimeout != 5*time.Second {
		t.Errorf("SpeechTimeout = %v", cfg.SpeechTimeout)
	}
	if cfg.Recognition.Punctuation {
		t.Error("DEFAULT_PUNCTUATION=false should disable punctuation")
	}
	if !cfg.AuthEnabled() {
		t.Error("auth should be enabled with a password hash")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SPEECH_TIMEOUT", "soon"},
		{"UPLOAD_MAX_SIZE", "big"},
		{"METRICS_ENABLED", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "speechcheck.yaml")
	content := `port: "4000"
db_path: /data/stt.db
speech_timeout: 10s
recognition:
  language: ko-KR
  model: latest_short
  punctuation: true
  enhanced: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "5000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "5000" {
		t.Errorf("env should win over file, got port %q", cfg.ServerPort)
	}
	if cfg.DatabasePath != "/data/stt.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.SpeechTimeout != 10*time.Second {
		t.Errorf("SpeechTimeout = %v", cfg.SpeechTimeout)
	}
	if cfg.Recognition.Language != "ko-KR" || cfg.Recognition.Enhanced {
		t.Errorf("unexpected recognition defaults %+v", cfg.Recognition)
	}
}
