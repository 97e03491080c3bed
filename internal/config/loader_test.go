package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
server:
  host: "localhost"
  port: 9090
  allowed_origins: ["http://localhost:5173"]
  max_sessions: 10

storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"

provider:
  name: "stub"

pipeline:
  max_attempts: 4
  retry_backoff_ms: 500
  images_per_segment: 2
  audio_stage_delay_ms: 0

session:
  mode: "autonomous"
  style: "maximal_bold_buzz"
  audacity: 8
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected host 'localhost', got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("Expected one allowed origin, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Storage.Local.BasePath != "/tmp/test" {
		t.Errorf("Expected base_path '/tmp/test', got '%s'", cfg.Storage.Local.BasePath)
	}
	if cfg.Provider.Name != "stub" || cfg.Provider.APIKeyEnv != "API_KEY" {
		t.Errorf("Expected stub provider with default key env, got %+v", cfg.Provider)
	}
	if cfg.Pipeline.MaxAttempts != 4 || cfg.Pipeline.RetryBackoffMs != 500 {
		t.Errorf("Expected retry settings 4/500, got %d/%d", cfg.Pipeline.MaxAttempts, cfg.Pipeline.RetryBackoffMs)
	}
	if cfg.Pipeline.ImagesPerSegment != 2 {
		t.Errorf("Expected 2 images per segment, got %d", cfg.Pipeline.ImagesPerSegment)
	}
	if cfg.Pipeline.AudioStageDelayMs != 0 {
		t.Errorf("Expected explicit zero audio delay, got %d", cfg.Pipeline.AudioStageDelayMs)
	}
	if cfg.Pipeline.VideoPlanningDelayMs != 300 {
		t.Errorf("Expected default video delay 300, got %d", cfg.Pipeline.VideoPlanningDelayMs)
	}
	if cfg.Session.Mode != types.ModeAutonomous || cfg.Session.Style != types.StyleBold || cfg.Session.Audacity != 8 {
		t.Errorf("Unexpected session defaults: %+v", cfg.Session)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*types.Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *types.Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port",
			modify:  func(c *types.Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid storage adapter",
			modify:  func(c *types.Config) { c.Storage.Adapter = "invalid" },
			wantErr: true,
		},
		{
			name:    "missing local base path",
			modify:  func(c *types.Config) { c.Storage.Local.BasePath = "" },
			wantErr: true,
		},
		{
			name:    "relative local base path",
			modify:  func(c *types.Config) { c.Storage.Local.BasePath = "data" },
			wantErr: true,
		},
		{
			name: "missing s3 bucket",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "s3"
				c.Storage.S3.Region = "us-east-1"
			},
			wantErr: true,
		},
		{
			name:    "unknown session mode",
			modify:  func(c *types.Config) { c.Session.Mode = "copilot" },
			wantErr: true,
		},
		{
			name:    "audacity out of range",
			modify:  func(c *types.Config) { c.Session.Audacity = 11 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefault()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := GetDefault()
	cfg.Provider = types.ProviderConfig{}
	cfg.Pipeline = types.PipelineConfig{}
	cfg.Session = types.SessionDefaults{}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Provider.Name != "gemini" || cfg.Provider.APIKeyEnv != "API_KEY" {
		t.Errorf("Expected provider defaults, got %+v", cfg.Provider)
	}
	if cfg.Pipeline.MaxAttempts != 3 || cfg.Pipeline.RetryBackoffMs != 1000 {
		t.Errorf("Expected retry defaults 3/1000, got %d/%d", cfg.Pipeline.MaxAttempts, cfg.Pipeline.RetryBackoffMs)
	}
	if cfg.Pipeline.TrendingTopicCount != 5 || cfg.Pipeline.MaxSegmentsForVisuals != 3 || cfg.Pipeline.ImagesPerSegment != 1 {
		t.Errorf("Unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Session.Mode != types.ModeGuided || cfg.Session.Style != types.StyleBalanced || cfg.Session.Audacity != types.DefaultAudacity {
		t.Errorf("Unexpected session defaults: %+v", cfg.Session)
	}
}

func TestEnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
server:
  host: "localhost"
  port: 8080
storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"
`)

	t.Setenv("RP_SERVER_PORT", "9999")
	t.Setenv("RP_STORAGE_LOCAL_BASE_PATH", "/tmp/override")
	t.Setenv("RP_SERVER_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("RP_PROVIDER_NAME", "stub")
	t.Setenv("RP_SESSION_MODE", "autonomous")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from env override, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Local.BasePath != "/tmp/override" {
		t.Errorf("Expected base_path '/tmp/override' from env override, got '%s'", cfg.Storage.Local.BasePath)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("Expected two allowed origins, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Provider.Name != "stub" {
		t.Errorf("Expected provider 'stub', got '%s'", cfg.Provider.Name)
	}
	if cfg.Session.Mode != types.ModeAutonomous {
		t.Errorf("Expected autonomous mode, got %s", cfg.Session.Mode)
	}
}

func TestGetDefault(t *testing.T) {
	cfg := GetDefault()
	if cfg == nil {
		t.Fatal("GetDefault() returned nil")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}
