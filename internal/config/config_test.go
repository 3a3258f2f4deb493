package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "coach.yaml")
	yaml := `
listen:
  port: 9000
gemini:
  api_key: ${TEST_GEMINI_KEY}
strava:
  client_id: "12345"
  client_secret: abc
data_dir: /var/lib/coach
log_level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Listen.Port)
	}
	if cfg.Gemini.APIKey != "secret-key" {
		t.Errorf("api_key = %q, want env-expanded value", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q, want default gemini-2.5-flash", cfg.Gemini.Model)
	}
	if cfg.Strava.ClientID != "12345" {
		t.Errorf("client_id = %q, want 12345", cfg.Strava.ClientID)
	}
	if got := cfg.DatabasePath(); got != "/var/lib/coach/coach.db" {
		t.Errorf("DatabasePath() = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	if _, err := FindConfig("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "complete",
			cfg: Config{
				Gemini: GeminiConfig{APIKey: "k"},
				Strava: StravaConfig{ClientID: "id", ClientSecret: "sec"},
			},
		},
		{
			name:    "missing gemini key",
			cfg:     Config{Strava: StravaConfig{ClientID: "id", ClientSecret: "sec"}},
			wantErr: true,
		},
		{
			name:    "missing strava secret",
			cfg:     Config{Gemini: GeminiConfig{APIKey: "k"}, Strava: StravaConfig{ClientID: "id"}},
			wantErr: true,
		},
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

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"trace", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{" debug ", slog.LevelDebug, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}
