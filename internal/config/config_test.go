package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"port": "8080",
		"database_url": "postgres://localhost/jobtracker",
		"generation_timeout_seconds": 120
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://localhost/jobtracker" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.GenerationTimeoutSeconds != 120 {
		t.Errorf("GenerationTimeoutSeconds = %d, want 120", cfg.GenerationTimeoutSeconds)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeConfigFile(t, "{not json")
	if _, err := LoadConfig(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://db/jobs")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GENERATION_TIMEOUT_SECONDS", "45")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Errorf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}
	if got := cfg.GenerationTimeout(); got != 45*time.Second {
		t.Errorf("GenerationTimeout() = %v, want 45s", got)
	}
}

func TestFromEnvInvalidInt(t *testing.T) {
	t.Setenv("PDF_TIMEOUT_SECONDS", "soon")
	if _, err := FromEnv(); err == nil {
		t.Error("expected error for non-numeric timeout")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "empty config", cfg: Config{}},
		{name: "valid port", cfg: Config{Port: "8080"}},
		{name: "port not a number", cfg: Config{Port: "http"}, wantErr: true},
		{name: "port out of range", cfg: Config{Port: "70000"}, wantErr: true},
		{name: "negative timeout", cfg: Config{GenerationTimeoutSeconds: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Port: "9090"}
	defaults := Config{
		Port:                     "8080",
		DatabaseURL:              "postgres://default/db",
		GenerationTimeoutSeconds: 90,
	}

	merged := cfg.MergeWithDefaults(defaults)

	if merged.Port != "9090" {
		t.Errorf("explicit value was overridden: Port = %q", merged.Port)
	}
	if merged.DatabaseURL != "postgres://default/db" {
		t.Errorf("default not applied: DatabaseURL = %q", merged.DatabaseURL)
	}
	if merged.GenerationTimeoutSeconds != 90 {
		t.Errorf("default not applied: GenerationTimeoutSeconds = %d", merged.GenerationTimeoutSeconds)
	}
}
