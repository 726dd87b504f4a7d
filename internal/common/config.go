package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is loaded when no -config flag is given and the file exists
const DefaultConfigFile = "jiralocal.toml"

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development", "production" or "test"; "test" enables the mock harness API
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Relay       RelayConfig    `toml:"relay"`
	Security    SecurityConfig `toml:"security"`
	Mock        MockConfig     `toml:"mock"`
	Demo        DemoConfig     `toml:"demo"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // debug|info|warn|error
	Output []string `toml:"output"` // "stdout" and/or "file"
	Dir    string   `toml:"dir"`    // Log directory for file output; empty means <executable dir>/logs
}

// RelayConfig controls outbound calls to real JIRA servers
type RelayConfig struct {
	Timeout           string  `toml:"timeout"`             // Per-request deadline, e.g. "30s"
	RequestsPerSecond float64 `toml:"requests_per_second"` // Per-connection outbound rate; 0 disables limiting
	Burst             int     `toml:"burst"`               // Token bucket size when rate limiting is enabled
}

// TimeoutDuration parses Timeout, falling back to 30s when unset or invalid
func (r RelayConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(r.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// SecurityConfig locates the master key that seals connection secrets
type SecurityConfig struct {
	EncryptionKey string `toml:"encryption_key"` // base64, at least 32 bytes decoded; takes precedence over KeyFile
	KeyFile       string `toml:"key_file"`       // Created with a random key on first start when missing
}

// MockConfig configures the in-process JIRA stand-in
type MockConfig struct {
	ProjectKey string `toml:"project_key"` // Prefix of created issue keys
	BaseURL    string `toml:"base_url"`    // Origin of issue self links
}

type DemoConfig struct {
	Enabled bool `toml:"enabled"` // Create the locked demo connection and seed demo issues on startup
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8000,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Relay: RelayConfig{
			Timeout:           "30s",
			RequestsPerSecond: 0,
			Burst:             5,
		},
		Security: SecurityConfig{
			KeyFile: "./data/secret.key",
		},
		Mock: MockConfig{
			ProjectKey: "TEST",
			BaseURL:    "http://localhost:8000",
		},
		Demo: DemoConfig{
			Enabled: true,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// CLI flags are applied afterwards with ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies JIRALOCAL_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("JIRALOCAL_ENV"); env != "" {
		config.Environment = env
	}

	// Server
	if port := os.Getenv("JIRALOCAL_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("JIRALOCAL_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage
	if badgerPath := os.Getenv("JIRALOCAL_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging
	if level := os.Getenv("JIRALOCAL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("JIRALOCAL_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Relay
	if timeout := os.Getenv("JIRALOCAL_RELAY_TIMEOUT"); timeout != "" {
		config.Relay.Timeout = timeout
	}
	if rps := os.Getenv("JIRALOCAL_RELAY_REQUESTS_PER_SECOND"); rps != "" {
		if r, err := strconv.ParseFloat(rps, 64); err == nil {
			config.Relay.RequestsPerSecond = r
		}
	}

	// Security
	if key := os.Getenv("JIRALOCAL_ENCRYPTION_KEY"); key != "" {
		config.Security.EncryptionKey = key
	}
	if keyFile := os.Getenv("JIRALOCAL_KEY_FILE"); keyFile != "" {
		config.Security.KeyFile = keyFile
	}

	// Mock
	if projectKey := os.Getenv("JIRALOCAL_MOCK_PROJECT_KEY"); projectKey != "" {
		config.Mock.ProjectKey = projectKey
	}
	if baseURL := os.Getenv("JIRALOCAL_MOCK_BASE_URL"); baseURL != "" {
		config.Mock.BaseURL = baseURL
	}

	// Demo
	if enabled := os.Getenv("JIRALOCAL_DEMO_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Demo.Enabled = e
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks values that would otherwise fail late at startup
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Relay.Timeout != "" {
		d, err := time.ParseDuration(c.Relay.Timeout)
		if err != nil {
			return fmt.Errorf("relay.timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("relay.timeout must be positive, got %s", c.Relay.Timeout)
		}
	}
	if c.Relay.RequestsPerSecond < 0 {
		return fmt.Errorf("relay.requests_per_second must not be negative")
	}
	if c.Relay.RequestsPerSecond > 0 && c.Relay.Burst < 1 {
		return fmt.Errorf("relay.burst must be at least 1 when rate limiting is enabled")
	}
	key := strings.TrimSpace(c.Mock.ProjectKey)
	if key == "" || strings.ContainsAny(key, "- /") || strings.ToUpper(key) != key {
		return fmt.Errorf("mock.project_key must be an upper-case key without dashes or spaces, got %q", c.Mock.ProjectKey)
	}
	if c.Security.EncryptionKey == "" && c.Security.KeyFile == "" {
		return fmt.Errorf("security.encryption_key or security.key_file is required")
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// IsTest returns true when the mock harness endpoints should be mounted
func (c *Config) IsTest() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "test")
}
