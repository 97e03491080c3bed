package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unalkalkan/ReelPilot/pkg/types"
	"gopkg.in/yaml.v3"
)

const envPrefix = "RP_"

// Load reads and parses the configuration file.
// Environment variables prefixed with RP_ override file values.
func Load(configPath string) (*types.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and fills unset pipeline, provider
// and session values with their defaults
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Server.MaxSessions < 0 {
		return fmt.Errorf("invalid max_sessions: %d", cfg.Server.MaxSessions)
	}

	switch cfg.Storage.Adapter {
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	default:
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	p := &cfg.Provider
	if p.Name == "" {
		p.Name = "gemini"
	}
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = "API_KEY"
	}
	if p.TimeoutSec < 0 {
		return fmt.Errorf("invalid provider timeout: %d", p.TimeoutSec)
	}

	pl := &cfg.Pipeline
	if pl.MaxAttempts <= 0 {
		pl.MaxAttempts = 3
	}
	if pl.RetryBackoffMs <= 0 {
		pl.RetryBackoffMs = 1000
	}
	if pl.TrendingTopicCount <= 0 {
		pl.TrendingTopicCount = 5
	}
	if pl.MaxSegmentsForVisuals <= 0 {
		pl.MaxSegmentsForVisuals = 3
	}
	if pl.ImagesPerSegment <= 0 {
		pl.ImagesPerSegment = 1
	}
	if pl.AudioStageDelayMs < 0 {
		pl.AudioStageDelayMs = 0
	}
	if pl.VideoPlanningDelayMs < 0 {
		pl.VideoPlanningDelayMs = 0
	}
	if pl.HistoryLimit <= 0 {
		pl.HistoryLimit = 100
	}
	if pl.ContentLanguage == "" {
		pl.ContentLanguage = "English"
	}

	s := &cfg.Session
	switch s.Mode {
	case "":
		s.Mode = types.ModeGuided
	case types.ModeGuided, types.ModeAutonomous:
	default:
		return fmt.Errorf("invalid session mode: %s (must be 'guided' or 'autonomous')", s.Mode)
	}
	switch s.Style {
	case "":
		s.Style = types.StyleBalanced
	case types.StyleBalanced, types.StyleBold:
	default:
		return fmt.Errorf("invalid session style: %s", s.Style)
	}
	if s.Audacity == 0 {
		s.Audacity = types.DefaultAudacity
	}
	if s.Audacity < types.MinAudacity || s.Audacity > types.MaxAudacity {
		return fmt.Errorf("session audacity must be between %d and %d: %d", types.MinAudacity, types.MaxAudacity, s.Audacity)
	}

	return nil
}

// applyEnvOverrides applies RP_-prefixed environment variables
func applyEnvOverrides(cfg *types.Config) {
	setString("SERVER_HOST", &cfg.Server.Host)
	setInt("SERVER_PORT", &cfg.Server.Port)
	setInt("SERVER_MAX_SESSIONS", &cfg.Server.MaxSessions)
	if val := env("SERVER_ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = splitList(val)
	}

	setString("STORAGE_ADAPTER", &cfg.Storage.Adapter)
	setString("STORAGE_KEY_PREFIX", &cfg.Storage.KeyPrefix)
	setString("STORAGE_LOCAL_BASE_PATH", &cfg.Storage.Local.BasePath)
	setString("STORAGE_S3_BUCKET", &cfg.Storage.S3.Bucket)
	setString("STORAGE_S3_REGION", &cfg.Storage.S3.Region)
	setString("STORAGE_S3_ENDPOINT", &cfg.Storage.S3.Endpoint)
	setString("STORAGE_S3_ACCESS_KEY_ID", &cfg.Storage.S3.AccessKeyID)
	setString("STORAGE_S3_SECRET_ACCESS_KEY", &cfg.Storage.S3.SecretAccessKey)

	setString("PROVIDER_NAME", &cfg.Provider.Name)
	setString("PROVIDER_API_KEY_ENV", &cfg.Provider.APIKeyEnv)
	setString("PROVIDER_TEXT_MODEL", &cfg.Provider.TextModel)
	setString("PROVIDER_IMAGE_MODEL", &cfg.Provider.ImageModel)
	setString("PROVIDER_IMAGE_ENDPOINT", &cfg.Provider.ImageEndpoint)

	setInt("PIPELINE_MAX_ATTEMPTS", &cfg.Pipeline.MaxAttempts)
	setInt("PIPELINE_RETRY_BACKOFF_MS", &cfg.Pipeline.RetryBackoffMs)
	setInt("PIPELINE_IMAGES_PER_SEGMENT", &cfg.Pipeline.ImagesPerSegment)
	setString("PIPELINE_CONTENT_LANGUAGE", &cfg.Pipeline.ContentLanguage)

	if val := env("SESSION_MODE"); val != "" {
		cfg.Session.Mode = types.Mode(val)
	}
	if val := env("SESSION_STYLE"); val != "" {
		cfg.Session.Style = types.Style(val)
	}
	setInt("SESSION_AUDACITY", &cfg.Session.Audacity)
}

func env(name string) string {
	return os.Getenv(envPrefix + name)
}

func setString(name string, dst *string) {
	if val := env(name); val != "" {
		*dst = val
	}
}

func setInt(name string, dst *int) {
	if val := env(name); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    15,
			WriteTimeout:   60,
			AllowedOrigins: []string{"*"},
			MaxSessions:    100,
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/reelpilot/storage",
			},
		},
		Provider: types.ProviderConfig{
			Name:       "gemini",
			APIKeyEnv:  "API_KEY",
			TimeoutSec: 120,
		},
		Pipeline: types.PipelineConfig{
			MaxAttempts:           3,
			RetryBackoffMs:        1000,
			TrendingTopicCount:    5,
			MaxSegmentsForVisuals: 3,
			ImagesPerSegment:      1,
			AudioStageDelayMs:     500,
			VideoPlanningDelayMs:  300,
			HistoryLimit:          100,
			ContentLanguage:       "English",
		},
		Session: types.SessionDefaults{
			Mode:     types.ModeGuided,
			Style:    types.StyleBalanced,
			Audacity: types.DefaultAudacity,
		},
	}
}
