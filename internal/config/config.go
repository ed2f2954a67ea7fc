package config

import (
	"errors"
	"time"
)

// Config is the application configuration root.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	AI       AIConfig       `mapstructure:"ai"`
	Log      LogConfig      `mapstructure:"log"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Frontend FrontendConfig `mapstructure:"frontend"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig completion API settings.
type AIConfig struct {
	Provider string          `mapstructure:"provider"` // openai, azure, ark
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"` // model name, or Azure deployment name
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig model parameters.
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// LogConfig zerolog settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB settings. An empty URI disables Mongo and the
// server falls back to the in-memory conversation store.
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis settings. Optional; used for one-time OAuth state tokens.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig OAuth and session settings.
type AuthConfig struct {
	SessionSecret string        `mapstructure:"session_secret"` // HS256 key for session tokens
	SessionExpiry time.Duration `mapstructure:"session_expiry"`
	ClientID      string        `mapstructure:"client_id"`     // Microsoft application (client) id
	ClientSecret  string        `mapstructure:"client_secret"` // Microsoft client secret
	Tenant        string        `mapstructure:"tenant"`        // AAD tenant, "common" for multi-tenant
	RedirectURL   string        `mapstructure:"redirect_url"`  // must match the registered callback
	AdminEmail    string        `mapstructure:"admin_email"`   // bootstrap admin account
	StateTTL      time.Duration `mapstructure:"state_ttl"`     // anti-forgery token lifetime
}

// UploadConfig attachment upload limits.
type UploadConfig struct {
	MaxSize int64 `mapstructure:"max_size"` // bytes
}

// StorageConfig attachment storage backend.
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig local filesystem storage.
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
	BaseURL  string `mapstructure:"base_url"`
}

// OSSConfig Aliyun OSS storage.
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
}

// FrontendConfig pre-built frontend bundle location.
type FrontendConfig struct {
	StaticDir string `mapstructure:"static_dir"`
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if c.Upload.MaxSize <= 0 {
		return errors.New("upload.max_size must be positive")
	}

	return nil
}
