package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Defaults for the hosted TaskFlow deployment.
const (
	DefaultBaseURL   = "https://bookmaster.fun/api"
	DefaultUploadURL = "https://developersoft.in/api/storeImageBytes"

	// BaseURLEnv overrides api.base_url when set.
	BaseURLEnv = "TASKFLOW_API_URL"
)

// APIConfig holds settings for the TaskFlow REST backend.
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries"`
}

// UploadConfig holds settings for the image upload service.
type UploadConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme           string `mapstructure:"theme" yaml:"theme"`
	CurrencySymbol  string `mapstructure:"currency_symbol" yaml:"currency_symbol"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// StorageConfig locates the local SQLite mirror.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LoggingConfig controls the structured log sink.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// TelemetryConfig enables OTLP export when Endpoint is non-empty.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	Environment  string `mapstructure:"environment" yaml:"environment"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API       APIConfig       `mapstructure:"api" yaml:"api"`
	Upload    UploadConfig    `mapstructure:"upload" yaml:"upload"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// ConfigDir returns ~/.config/taskflow, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskflow")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskflow/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			TimeoutSec: 30,
			MaxRetries: 3,
		},
		Upload: UploadConfig{URL: DefaultUploadURL},
		Display: DisplayConfig{
			Theme:           "default",
			CurrencySymbol:  "₹",
			PollIntervalSec: 60,
		},
		Storage: StorageConfig{DBPath: filepath.Join(dir, "taskflow.db")},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dir, "taskflow.log"),
		},
		Telemetry: TelemetryConfig{Environment: "development"},
	}
}

func setDefaults(v *viper.Viper, cfg *AppConfig) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout_sec", cfg.API.TimeoutSec)
	v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	v.SetDefault("upload.url", cfg.Upload.URL)
	v.SetDefault("display.theme", cfg.Display.Theme)
	v.SetDefault("display.currency_symbol", cfg.Display.CurrencySymbol)
	v.SetDefault("display.poll_interval_sec", cfg.Display.PollIntervalSec)
	v.SetDefault("storage.db_path", cfg.Storage.DBPath)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("telemetry.otlp_endpoint", cfg.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.environment", cfg.Telemetry.Environment)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration. The
// TASKFLOW_API_URL environment variable overrides api.base_url either way.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if env := strings.TrimSpace(os.Getenv(BaseURLEnv)); env != "" {
		cfg.API.BaseURL = env
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.Display.PollIntervalSec <= 0 {
		cfg.Display.PollIntervalSec = 60
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("upload", cfg.Upload)
	v.Set("display", cfg.Display)
	v.Set("storage", cfg.Storage)
	v.Set("logging", cfg.Logging)
	v.Set("telemetry", cfg.Telemetry)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
