package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.RateLimit.RequestsPerSecond != 1.0 {
		t.Errorf("Expected default rate to be 1.0 requests per second, got %v", config.RateLimit.RequestsPerSecond)
	}

	if config.Download.ImageDir != "images" {
		t.Errorf("Expected default image directory to be images, got %s", config.Download.ImageDir)
	}

	if config.Download.Pause != 3*time.Second {
		t.Errorf("Expected default download pause to be 3s, got %v", config.Download.Pause)
	}

	if config.Output.CSVPath != "inaturalist_filenames.csv" {
		t.Errorf("Expected default CSV path to be inaturalist_filenames.csv, got %s", config.Output.CSVPath)
	}

	if config.Output.Limit != 0 {
		t.Errorf("Expected default limit to be 0 (unlimited), got %d", config.Output.Limit)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INATDL_USERNAME", "mycologist")
	t.Setenv("INATDL_SESSION_COOKIE", "test-cookie-value")
	t.Setenv("INATDL_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("INATDL_IMAGE_DIR", "/tmp/test-images")
	t.Setenv("INATDL_OUTPUT", "results.csv")
	t.Setenv("INATDL_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.INaturalist.Username != "mycologist" {
		t.Errorf("Expected username to be mycologist, got %s", config.INaturalist.Username)
	}

	if config.INaturalist.SessionCookie != "test-cookie-value" {
		t.Errorf("Expected session cookie to be test-cookie-value, got %s", config.INaturalist.SessionCookie)
	}

	if config.RateLimit.RequestsPerSecond != 0.5 {
		t.Errorf("Expected requests per second to be 0.5, got %v", config.RateLimit.RequestsPerSecond)
	}

	if config.Download.ImageDir != "/tmp/test-images" {
		t.Errorf("Expected image directory to be /tmp/test-images, got %s", config.Download.ImageDir)
	}

	if config.Output.CSVPath != "results.csv" {
		t.Errorf("Expected CSV path to be results.csv, got %s", config.Output.CSVPath)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvIgnoresInvalidRate(t *testing.T) {
	t.Setenv("INATDL_REQUESTS_PER_SECOND", "not-a-number")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.RateLimit.RequestsPerSecond != 1.0 {
		t.Errorf("Expected invalid rate to keep the default 1.0, got %v", config.RateLimit.RequestsPerSecond)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.INaturalist.Username = "mycologist"
		return c
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "missing username",
			mutate:    func(c *Config) { c.INaturalist.Username = "" },
			wantError: "username is required",
		},
		{
			name:      "output without csv extension",
			mutate:    func(c *Config) { c.Output.CSVPath = "results.txt" },
			wantError: ".csv extension",
		},
		{
			name:   "uppercase csv extension accepted",
			mutate: func(c *Config) { c.Output.CSVPath = "RESULTS.CSV" },
		},
		{
			name:      "empty output path",
			mutate:    func(c *Config) { c.Output.CSVPath = "" },
			wantError: "output CSV path is required",
		},
		{
			name:      "zero rate",
			mutate:    func(c *Config) { c.RateLimit.RequestsPerSecond = 0 },
			wantError: "requests per second must be positive",
		},
		{
			name:      "negative limit",
			mutate:    func(c *Config) { c.Output.Limit = -1 },
			wantError: "observation limit cannot be negative",
		},
		{
			name: "download without image dir",
			mutate: func(c *Config) {
				c.Download.Enabled = true
				c.Download.ImageDir = ""
			},
			wantError: "image directory is required",
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "chatty" },
			wantError: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantError == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantError)
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantError, err)
			}
		})
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	config := DefaultConfig()
	config.Output.CSVPath = "results.txt"

	err := config.Validate()
	if err == nil {
		t.Fatal("Expected validation to fail")
	}

	msg := err.Error()
	if !strings.Contains(msg, "username is required") {
		t.Errorf("Expected joined errors to mention the missing username, got: %v", err)
	}
	if !strings.Contains(msg, ".csv extension") {
		t.Errorf("Expected joined errors to mention the extension, got: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
inaturalist:
  username: mycologist
  session_cookie: file-cookie
rate_limit:
  requests_per_second: 2.0
download:
  enabled: true
  image_dir: originals
output:
  csv_path: from_file.csv
  include_photo_urls: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.INaturalist.Username != "mycologist" {
		t.Errorf("Expected username to be mycologist, got %s", config.INaturalist.Username)
	}
	if config.RateLimit.RequestsPerSecond != 2.0 {
		t.Errorf("Expected requests per second to be 2.0, got %v", config.RateLimit.RequestsPerSecond)
	}
	if !config.Download.Enabled {
		t.Error("Expected downloads to be enabled")
	}
	if config.Download.ImageDir != "originals" {
		t.Errorf("Expected image directory to be originals, got %s", config.Download.ImageDir)
	}
	if config.Output.CSVPath != "from_file.csv" {
		t.Errorf("Expected CSV path to be from_file.csv, got %s", config.Output.CSVPath)
	}
	if !config.Output.IncludePhotoURLs {
		t.Error("Expected photo URL columns to be enabled")
	}

	// Defaults not mentioned in the file survive the merge.
	if config.Download.Pause != 3*time.Second {
		t.Errorf("Expected default pause to survive, got %v", config.Download.Pause)
	}
}

func TestLoadFromFileMissingPathIsNotAnError(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(""); err != nil {
		t.Errorf("Expected no error for unset config path, got: %v", err)
	}
}

func TestLoadFromFileBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("inaturalist: ["), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.INaturalist.Username = "from-env"

	config.MergeCommandLineFlags(map[string]interface{}{
		"username":       "from-flag",
		"cookie":         "  flag-cookie  ",
		"limit":          25,
		"download":       true,
		"image-dir":      "flag-images",
		"add-photo-urls": true,
		"output":         "flag.csv",
		"rate-limit":     0.25,
	})

	if config.INaturalist.Username != "from-flag" {
		t.Errorf("Expected flag username to win, got %s", config.INaturalist.Username)
	}
	if config.INaturalist.SessionCookie != "flag-cookie" {
		t.Errorf("Expected cookie to be trimmed, got %q", config.INaturalist.SessionCookie)
	}
	if config.Output.Limit != 25 {
		t.Errorf("Expected limit to be 25, got %d", config.Output.Limit)
	}
	if !config.Download.Enabled {
		t.Error("Expected downloads to be enabled")
	}
	if config.Download.ImageDir != "flag-images" {
		t.Errorf("Expected image directory to be flag-images, got %s", config.Download.ImageDir)
	}
	if !config.Output.IncludePhotoURLs {
		t.Error("Expected photo URL columns to be enabled")
	}
	if config.Output.CSVPath != "flag.csv" {
		t.Errorf("Expected CSV path to be flag.csv, got %s", config.Output.CSVPath)
	}
	if config.RateLimit.RequestsPerSecond != 0.25 {
		t.Errorf("Expected requests per second to be 0.25, got %v", config.RateLimit.RequestsPerSecond)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
inaturalist:
  username: from-file
output:
  csv_path: from_file.csv
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("INATDL_USERNAME", "from-env")

	config, err := Load(path, map[string]interface{}{
		"output": "from_flag.csv",
	})
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Env overrides the file, flags override both.
	if config.INaturalist.Username != "from-env" {
		t.Errorf("Expected env username to override the file, got %s", config.INaturalist.Username)
	}
	if config.Output.CSVPath != "from_flag.csv" {
		t.Errorf("Expected flag CSV path to win, got %s", config.Output.CSVPath)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	_, err := Load("", map[string]interface{}{
		"username": "mycologist",
		"output":   "not-a-csv.txt",
	})
	if err == nil {
		t.Fatal("Expected validation failure for non-csv output")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Expected a validation error, got: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	config := DefaultConfig()
	config.INaturalist.Username = "mycologist"
	config.Output.Limit = 10

	if err := config.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	if loaded.INaturalist.Username != "mycologist" {
		t.Errorf("Expected username to round-trip, got %s", loaded.INaturalist.Username)
	}
	if loaded.Output.Limit != 10 {
		t.Errorf("Expected limit to round-trip, got %d", loaded.Output.Limit)
	}
}
