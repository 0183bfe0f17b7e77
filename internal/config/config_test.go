package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
booking:
  max_per_day: 4
  timezone: "Asia/Bangkok"
api:
  auth:
    api_keys:
      - key: "k1"
        name: "admin"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Booking.MaxPerDay != 4 {
		t.Errorf("expected max_per_day 4, got %d", cfg.Booking.MaxPerDay)
	}

	wantLoc, _ := time.LoadLocation("Asia/Bangkok")
	if cfg.Booking.Location().String() != wantLoc.String() {
		t.Errorf("expected timezone Asia/Bangkok, got %s", cfg.Booking.Location())
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
api:
  auth:
    api_keys:
      - key: "k1"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Booking.MaxPerDay != 3 {
		t.Errorf("expected default max_per_day 3, got %d", cfg.Booking.MaxPerDay)
	}
	if cfg.Booking.Location() != time.UTC {
		t.Errorf("expected default timezone UTC, got %s", cfg.Booking.Location())
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default http port 8080, got %d", cfg.API.HTTP.Port)
	}
	if !cfg.API.Auth.Enabled {
		t.Errorf("expected auth enabled by default")
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{MaxPerDay: 3, Timezone: "UTC"},
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				Booking: BookingConfig{MaxPerDay: 3, Timezone: "UTC"},
			},
			wantErr: true,
		},
		{
			name: "non-positive cap",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{MaxPerDay: 0, Timezone: "UTC"},
			},
			wantErr: true,
		},
		{
			name: "bad timezone",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{MaxPerDay: 3, Timezone: "Mars/OlympusMons"},
			},
			wantErr: true,
		},
		{
			name: "telegram enabled without token",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{MaxPerDay: 3, Timezone: "UTC"},
				Telegram: TelegramConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{MaxPerDay: 3, Timezone: "UTC"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: true}},
			},
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
