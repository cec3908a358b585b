package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/vertextoedge/hub-mirror/internal/domain"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "HUB_MIRROR"

// Config represents the entire application configuration
type Config struct {
	Hub      HubConfig      `mapstructure:"hub"`
	Download DownloadConfig `mapstructure:"download"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// HubConfig identifies the hub and the repository to mirror
type HubConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	RepoID   string `mapstructure:"repo_id"`
	RepoType string `mapstructure:"repo_type"`
	Revision string `mapstructure:"revision"`
	Timeout  string `mapstructure:"timeout"`
}

// DownloadConfig contains transfer settings
type DownloadConfig struct {
	OutputDir        string `mapstructure:"output_dir"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	RetryDelay       string `mapstructure:"retry_delay"`
	ChunkSizeKB      int    `mapstructure:"chunk_size_kb"`
	ProgressInterval string `mapstructure:"progress_interval"`
}

// HistoryConfig contains run ledger settings
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Overrides carries command line values. Empty fields are ignored.
type Overrides struct {
	RepoID    string
	RepoType  string
	Revision  string
	OutputDir string
}

// Load reads configuration from, in increasing precedence: defaults, the
// YAML file, a .env file in the working directory, the environment and
// overrides. An empty configPath looks for hub-mirror.yaml in the working
// directory and tolerates its absence.
func Load(configPath string, overrides Overrides) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("hub.endpoint", EnvPrefix+"_HUB_ENDPOINT", "HF_ENDPOINT"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("hub-mirror")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	applyOverrides(v, overrides)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hub.endpoint", "https://huggingface.co")
	v.SetDefault("hub.repo_id", "")
	v.SetDefault("hub.repo_type", domain.RepoTypeModel)
	v.SetDefault("hub.revision", "main")
	v.SetDefault("hub.timeout", "30s")
	v.SetDefault("download.output_dir", ".")
	v.SetDefault("download.max_attempts", 5)
	v.SetDefault("download.retry_delay", "5s")
	v.SetDefault("download.chunk_size_kb", 8)
	v.SetDefault("download.progress_interval", "2s")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func applyOverrides(v *viper.Viper, o Overrides) {
	if o.RepoID != "" {
		v.Set("hub.repo_id", o.RepoID)
	}
	if o.RepoType != "" {
		v.Set("hub.repo_type", o.RepoType)
	}
	if o.Revision != "" {
		v.Set("hub.revision", o.Revision)
	}
	if o.OutputDir != "" {
		v.Set("download.output_dir", o.OutputDir)
	}
}

// loadDotEnv loads path into the process environment if it exists.
// Variables already set are kept.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate validates the configuration. hub.repo_id is not checked here
// since only the download command needs it; see RequireRepo.
func (c *Config) Validate() error {
	// Validate hub config
	u, err := url.Parse(c.Hub.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid hub.endpoint: %q", c.Hub.Endpoint)
	}
	if !domain.ValidRepoType(c.Hub.RepoType) {
		return fmt.Errorf("invalid hub.repo_type: %s", c.Hub.RepoType)
	}
	if c.Hub.Revision == "" {
		return fmt.Errorf("hub.revision must not be empty")
	}
	if _, err := time.ParseDuration(c.Hub.Timeout); err != nil {
		return fmt.Errorf("invalid hub.timeout: %w", err)
	}

	// Validate download config
	if c.Download.OutputDir == "" {
		return fmt.Errorf("download.output_dir must not be empty")
	}
	if c.Download.MaxAttempts < 1 || c.Download.MaxAttempts > 100 {
		return fmt.Errorf("download.max_attempts must be between 1 and 100")
	}
	if d, err := time.ParseDuration(c.Download.RetryDelay); err != nil || d < 0 {
		return fmt.Errorf("invalid download.retry_delay: %q", c.Download.RetryDelay)
	}
	if c.Download.ChunkSizeKB <= 0 {
		return fmt.Errorf("download.chunk_size_kb must be positive")
	}
	if _, err := time.ParseDuration(c.Download.ProgressInterval); err != nil {
		return fmt.Errorf("invalid download.progress_interval: %w", err)
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// RequireRepo returns an error if no repository is configured
func (c *Config) RequireRepo() error {
	if c.Hub.RepoID == "" {
		return fmt.Errorf("hub.repo_id is required")
	}
	return nil
}

// GetTimeout returns the hub request timeout as time.Duration
func (c *HubConfig) GetTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetRetryDelay returns the delay between attempts as time.Duration
func (c *DownloadConfig) GetRetryDelay() time.Duration {
	d, _ := time.ParseDuration(c.RetryDelay)
	return d
}

// GetChunkSize returns the read chunk size in bytes
func (c *DownloadConfig) GetChunkSize() int {
	if c.ChunkSizeKB <= 0 {
		return 8 * 1024 // 8KB default
	}
	return c.ChunkSizeKB * 1024
}

// GetProgressInterval returns the progress log interval as time.Duration
func (c *DownloadConfig) GetProgressInterval() time.Duration {
	d, _ := time.ParseDuration(c.ProgressInterval)
	if d == 0 {
		return 2 * time.Second
	}
	return d
}

// GetPath returns the ledger database path, defaulting to a file under
// the output directory
func (c *HistoryConfig) GetPath(outputDir string) string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(outputDir, ".hub-mirror", "history.db")
}
