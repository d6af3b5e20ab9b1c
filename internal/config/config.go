package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"dataops/internal/errors"

	"github.com/spf13/viper"
)

// DefaultAPIBaseURL is the local development address of the analysis API
const DefaultAPIBaseURL = "http://localhost:8000"

// AcceptedExtensions are advertised to the user in the file picker; the
// analysis API is the one that enforces them
var AcceptedExtensions = []string{".csv", ".xlsx", ".xls", ".json", ".parquet"}

// Config represents the complete application configuration
type Config struct {
	API     APIConfig
	Server  ServerConfig
	Session SessionConfig
	Upload  UploadConfig
	UI      UIConfig
	Log     LogConfig
}

// APIConfig holds the remote analysis API settings
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// SessionConfig controls how long an idle dashboard is kept in memory
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// UploadConfig holds file staging settings
type UploadConfig struct {
	StagingDir string
	MaxSizeMB  int // advisory text only
}

// UIConfig holds presentation switches
type UIConfig struct {
	AppName          string
	MarkdownInsights bool
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_BASE_URL", DefaultAPIBaseURL)
	v.SetDefault("REQUEST_TIMEOUT", "5m")
	v.SetDefault("PORT", "3000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")
	v.SetDefault("STAGING_DIR", os.TempDir())
	v.SetDefault("MAX_UPLOAD_MB", 100)
	v.SetDefault("APP_NAME", "DataOps Copilot")
	v.SetDefault("MARKDOWN_INSIGHTS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads configuration from an optional config file and the environment
// (environment wins) and validates it. Call godotenv first to pick up .env.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to read config file %s", configFile)
		}
	}

	config := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("API_BASE_URL")), "/"),
			Timeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Server: ServerConfig{
			Port:    v.GetString("PORT"),
			GinMode: v.GetString("GIN_MODE"),
		},
		Session: SessionConfig{
			TTL:           v.GetDuration("SESSION_TTL"),
			SweepInterval: v.GetDuration("SESSION_SWEEP_INTERVAL"),
		},
		Upload: UploadConfig{
			StagingDir: v.GetString("STAGING_DIR"),
			MaxSizeMB:  v.GetInt("MAX_UPLOAD_MB"),
		},
		UI: UIConfig{
			AppName:          v.GetString("APP_NAME"),
			MarkdownInsights: v.GetBool("MARKDOWN_INSIGHTS"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.API.BaseURL == "" {
		return errors.ConfigInvalid("API_BASE_URL is required")
	}
	u, err := url.Parse(config.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.ConfigInvalid("API_BASE_URL must be an absolute http(s) URL")
	}
	if config.API.Timeout <= 0 {
		return errors.ConfigInvalid("REQUEST_TIMEOUT must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Session.TTL <= 0 || config.Session.SweepInterval <= 0 {
		return errors.ConfigInvalid("SESSION_TTL and SESSION_SWEEP_INTERVAL must be positive")
	}
	if config.Upload.StagingDir == "" {
		return errors.ConfigInvalid("STAGING_DIR is required")
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return errors.ConfigInvalid("LOG_FORMAT must be text or json")
	}
	return nil
}
