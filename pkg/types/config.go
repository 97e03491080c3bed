package types

// Config represents the overall application configuration
type Config struct {
	Server   ServerConfig    `yaml:"server" json:"server"`
	Storage  StorageConfig   `yaml:"storage" json:"storage"`
	Provider ProviderConfig  `yaml:"provider" json:"provider"`
	Pipeline PipelineConfig  `yaml:"pipeline" json:"pipeline"`
	Session  SessionDefaults `yaml:"session" json:"session"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string   `yaml:"host" json:"host"`
	Port           int      `yaml:"port" json:"port"`
	ReadTimeout    int      `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout   int      `yaml:"write_timeout" json:"write_timeout"` // seconds
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	MaxSessions    int      `yaml:"max_sessions" json:"max_sessions"`
}

// StorageConfig defines where exported briefs and session bundles are written
type StorageConfig struct {
	Adapter   string           `yaml:"adapter" json:"adapter"` // "local" or "s3"
	KeyPrefix string           `yaml:"key_prefix" json:"key_prefix"`
	Local     LocalStorageOpts `yaml:"local" json:"local"`
	S3        S3StorageOpts    `yaml:"s3" json:"s3"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"-"`
	SecretAccessKey string `yaml:"secret_access_key" json:"-"`
}

// ProviderConfig configures the generation backend.
// The credential itself is never stored here; it is read from the
// environment variable named by APIKeyEnv.
type ProviderConfig struct {
	Name          string            `yaml:"name" json:"name"` // "gemini" or "stub"
	APIKeyEnv     string            `yaml:"api_key_env" json:"api_key_env"`
	TextModel     string            `yaml:"text_model" json:"text_model"`
	ImageModel    string            `yaml:"image_model" json:"image_model"`
	ImageEndpoint string            `yaml:"image_endpoint" json:"image_endpoint"`
	TimeoutSec    int               `yaml:"timeout_sec" json:"timeout_sec"`
	Options       map[string]string `yaml:"options" json:"options"`
}

// PipelineConfig holds generation pipeline settings
type PipelineConfig struct {
	MaxAttempts           int `yaml:"max_attempts" json:"max_attempts"`
	RetryBackoffMs        int `yaml:"retry_backoff_ms" json:"retry_backoff_ms"`
	TrendingTopicCount    int `yaml:"trending_topic_count" json:"trending_topic_count"`
	MaxSegmentsForVisuals int `yaml:"max_segments_for_visuals" json:"max_segments_for_visuals"`
	ImagesPerSegment      int `yaml:"images_per_segment" json:"images_per_segment"`
	AudioStageDelayMs     int `yaml:"audio_stage_delay_ms" json:"audio_stage_delay_ms"`
	VideoPlanningDelayMs  int `yaml:"video_planning_delay_ms" json:"video_planning_delay_ms"`
	HistoryLimit          int `yaml:"history_limit" json:"history_limit"`

	ContentLanguage string `yaml:"content_language" json:"content_language"`
}

// SessionDefaults seeds the configuration of newly created sessions
type SessionDefaults struct {
	Mode     Mode  `yaml:"mode" json:"mode"`
	Style    Style `yaml:"style" json:"style"`
	Audacity int   `yaml:"audacity" json:"audacity"`
}
