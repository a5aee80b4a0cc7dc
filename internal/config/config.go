// Package config loads facultydash settings from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// DefaultPath is where the CLI looks for a config file
const DefaultPath = "facultydash.yaml"

// Environment variables that override file settings
const (
	EnvBackendURL  = "FACULTYDASH_BACKEND_URL"
	EnvFacultyName = "FACULTY_NAME"
	EnvPort        = "FACULTYDASH_PORT"
	EnvPageSize    = "FACULTYDASH_PAGE_SIZE"
)

type Config struct {
	Backend      BackendConfig `yaml:"backend"`
	Server       ServerConfig  `yaml:"server"`
	Export       ExportConfig  `yaml:"export"`
	FacultyName  string        `yaml:"faculty_name"`
	DefaultBatch models.Batch  `yaml:"default_batch"`
}

// BackendConfig locates the results backend
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// SessionIdle is how long an untouched session is kept
	SessionIdle time.Duration `yaml:"session_idle"`
}

// ExportConfig controls capture and pagination
type ExportConfig struct {
	PageSize    string        `yaml:"page_size"`
	Landscape   bool          `yaml:"landscape"`
	Scale       float64       `yaml:"scale"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:     "http://localhost:5000",
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Port:        8888,
			SessionIdle: 12 * time.Hour,
		},
		Export: ExportConfig{
			PageSize:    "A4",
			Scale:       2,
			SettleDelay: 250 * time.Millisecond,
		},
		FacultyName:  "Faculty",
		DefaultBatch: models.Batch{Branch: "CS", Year: 2024, Semester: 4},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default otherwise
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// ApplyEnv overrides settings from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvBackendURL)); v != "" {
		c.Backend.URL = v
	}
	if v := strings.TrimSpace(getenv(EnvFacultyName)); v != "" {
		c.FacultyName = v
	}
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	if v := strings.TrimSpace(getenv(EnvPageSize)); v != "" {
		c.Export.PageSize = v
	}
	return nil
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Export.Scale <= 0 {
		return fmt.Errorf("export scale must be positive, got %v", c.Export.Scale)
	}
	if err := c.DefaultBatch.Validate(); err != nil {
		return fmt.Errorf("invalid default batch: %w", err)
	}
	return nil
}

func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
