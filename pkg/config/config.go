package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the iNaturalist downloader
type Config struct {
	// iNaturalist account and session settings
	INaturalist INaturalistConfig `yaml:"inaturalist" json:"inaturalist"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// CSV output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// INaturalistConfig holds account-specific configuration
type INaturalistConfig struct {
	Username      string `yaml:"username" json:"username"`
	SessionCookie string `yaml:"session_cookie" json:"session_cookie"`
	UserAgent     string `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration. The gate is shared by
// every outbound request in the process.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" json:"burst_size"`
}

// DownloadConfig holds image download configuration
type DownloadConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	ImageDir  string        `yaml:"image_dir" json:"image_dir"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	Pause     time.Duration `yaml:"pause" json:"pause"`
	ChunkSize int           `yaml:"chunk_size" json:"chunk_size"`
}

// OutputConfig holds CSV output configuration
type OutputConfig struct {
	CSVPath          string `yaml:"csv_path" json:"csv_path"`
	IncludePhotoURLs bool   `yaml:"include_photo_urls" json:"include_photo_urls"`
	Limit            int    `yaml:"limit" json:"limit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		INaturalist: INaturalistConfig{
			UserAgent: "inatdl/1.0",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1.0,
			BurstSize:         0,
		},
		Download: DownloadConfig{
			Enabled:   false,
			ImageDir:  "images",
			Timeout:   0, // rely on transport defaults
			Pause:     3 * time.Second,
			ChunkSize: 8192,
		},
		Output: OutputConfig{
			CSVPath:          "inaturalist_filenames.csv",
			IncludePhotoURLs: false,
			Limit:            0, // 0 means no limit
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if username := os.Getenv("INATDL_USERNAME"); username != "" {
		c.INaturalist.Username = username
	}
	if cookie := os.Getenv("INATDL_SESSION_COOKIE"); cookie != "" {
		c.INaturalist.SessionCookie = cookie
	}
	if userAgent := os.Getenv("INATDL_USER_AGENT"); userAgent != "" {
		c.INaturalist.UserAgent = userAgent
	}

	if rps := os.Getenv("INATDL_REQUESTS_PER_SECOND"); rps != "" {
		if val, err := strconv.ParseFloat(rps, 64); err == nil && val > 0 {
			c.RateLimit.RequestsPerSecond = val
		}
	}

	if imageDir := os.Getenv("INATDL_IMAGE_DIR"); imageDir != "" {
		c.Download.ImageDir = imageDir
	}
	if csvPath := os.Getenv("INATDL_OUTPUT"); csvPath != "" {
		c.Output.CSVPath = csvPath
	}

	if logLevel := os.Getenv("INATDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".inatdl.yaml",
		".inatdl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "inatdl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "inatdl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".inatdl.yaml"),
		filepath.Join(os.Getenv("HOME"), ".inatdl.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Validation failures are
// fatal and happen before any network activity.
func (c *Config) Validate() error {
	var errs []error

	if c.INaturalist.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}
	if c.RateLimit.BurstSize < 0 {
		errs = append(errs, errors.New("burst size cannot be negative"))
	}

	if c.Output.CSVPath == "" {
		errs = append(errs, errors.New("output CSV path is required"))
	} else if !strings.HasSuffix(strings.ToLower(c.Output.CSVPath), ".csv") {
		errs = append(errs, fmt.Errorf("output filename %q must have a .csv extension", c.Output.CSVPath))
	}
	if c.Output.Limit < 0 {
		errs = append(errs, errors.New("observation limit cannot be negative"))
	}

	if c.Download.Enabled && c.Download.ImageDir == "" {
		errs = append(errs, errors.New("image directory is required when downloads are enabled"))
	}
	if c.Download.ChunkSize <= 0 {
		errs = append(errs, errors.New("download chunk size must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if username, ok := flags["username"].(string); ok && username != "" {
		c.INaturalist.Username = username
	}
	if cookie, ok := flags["cookie"].(string); ok && cookie != "" {
		c.INaturalist.SessionCookie = strings.TrimSpace(cookie)
	}
	if limit, ok := flags["limit"].(int); ok && limit > 0 {
		c.Output.Limit = limit
	}
	if download, ok := flags["download"].(bool); ok {
		c.Download.Enabled = download
	}
	if imageDir, ok := flags["image-dir"].(string); ok && imageDir != "" {
		c.Download.ImageDir = imageDir
	}
	if addURLs, ok := flags["add-photo-urls"].(bool); ok {
		c.Output.IncludePhotoURLs = addURLs
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output.CSVPath = output
	}
	if rps, ok := flags["rate-limit"].(float64); ok && rps > 0 {
		c.RateLimit.RequestsPerSecond = rps
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".inatdl.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
