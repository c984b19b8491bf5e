package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

// EnvPrefix is prepended to every environment variable read by the CLI
const EnvPrefix = "NEXUS3_"

var (
	// ErrNotFound is returned by Load when the settings file does not exist
	ErrNotFound = errors.New("configuration not found")
	// ErrInvalid wraps every Validate failure
	ErrInvalid = errors.New("invalid configuration")
)

// Default settings for a fresh Nexus 3 installation
const (
	DefaultURL        = "http://localhost:8081"
	DefaultUsername   = "admin"
	DefaultPassword   = "admin123"
	DefaultAPIVersion = "v1"
	DefaultTimeout    = 30 * time.Second
)

// Config holds the connection settings for a Nexus server
type Config struct {
	URL        string        `json:"url"`
	Username   string        `json:"username"`
	Password   string        `json:"password"`
	X509Verify bool          `json:"x509_verify"`
	APIVersion string        `json:"api_version"`
	Timeout    Seconds       `json:"timeout,omitempty"`
	Retries    int           `json:"retries,omitempty"`
	Logging    LoggingConfig `json:"-"`

	path string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json, text
}

// Seconds is a duration serialised as a whole number of seconds
type Seconds time.Duration

// MarshalJSON implements json.Marshaler
func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(time.Duration(s) / time.Second))
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Seconds) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timeout must be a number of seconds: %w", err)
	}
	*s = Seconds(time.Duration(n) * time.Second)
	return nil
}

// Duration returns s as a time.Duration
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

// DefaultPath returns the settings file location, honouring NEXUS3_CONFIG
func DefaultPath() string {
	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nexus-cli"
	}
	return filepath.Join(home, ".nexus-cli")
}

// New returns a configuration holding the defaults, bound to path
func New(path string) *Config {
	if path == "" {
		path = DefaultPath()
	}
	return &Config{
		URL:        DefaultURL,
		Username:   DefaultUsername,
		Password:   DefaultPassword,
		X509Verify: true,
		APIVersion: DefaultAPIVersion,
		Timeout:    Seconds(DefaultTimeout),
		Logging:    LoggingFromEnv(),
		path:       path,
	}
}

// Load reads the settings file at path and applies environment overrides.
// A missing file yields ErrNotFound.
func Load(path string) (*Config, error) {
	cfg := New(path)

	data, err := os.ReadFile(cfg.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, cfg.path)
		}
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	// JSON is a subset of YAML so both formats are accepted here
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration %s: %w", cfg.path, err)
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv overrides cfg with any NEXUS3_* environment variables
func LoadFromEnv(cfg *Config) *Config {
	cfg.URL = getEnv("URL", cfg.URL)
	cfg.Username = getEnv("USERNAME", cfg.Username)
	cfg.Password = getEnv("PASSWORD", cfg.Password)
	cfg.X509Verify = getEnvBool("X509_VERIFY", cfg.X509Verify)
	cfg.APIVersion = getEnv("API_VERSION", cfg.APIVersion)
	cfg.Timeout = Seconds(getEnvDuration("TIMEOUT", cfg.Timeout.Duration()))
	cfg.Retries = getEnvInt("RETRIES", cfg.Retries)
	return cfg
}

// Path returns the settings file this configuration is bound to
func (c *Config) Path() string {
	return c.path
}

// EnvFile returns the path of the shell environment file written by Save
func (c *Config) EnvFile() string {
	return c.path + ".env"
}

// Validate checks the settings are usable for building a client
func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: url %q: %v", ErrInvalid, c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url %q: scheme must be http or https", ErrInvalid, c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url %q: missing host", ErrInvalid, c.URL)
	}
	switch c.APIVersion {
	case "v1", "beta":
	default:
		return fmt.Errorf("%w: unsupported api_version %q", ErrInvalid, c.APIVersion)
	}
	if c.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative", ErrInvalid)
	}
	return nil
}

// BaseURL returns the server URL without a trailing slash
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.URL, "/")
}

// RESTURL returns the base of the versioned REST API, ending in a slash
func (c *Config) RESTURL() string {
	return fmt.Sprintf("%s/service/rest/%s/", c.BaseURL(), c.APIVersion)
}

// Save writes the settings file and its companion environment file
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := os.WriteFile(c.path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	if err := os.WriteFile(c.EnvFile(), []byte(c.envScript()), 0600); err != nil {
		return fmt.Errorf("failed to write environment file: %w", err)
	}
	return nil
}

func (c *Config) envScript() string {
	vars := []struct {
		key   string
		value string
	}{
		{"URL", c.URL},
		{"USERNAME", c.Username},
		{"PASSWORD", c.Password},
		{"X509_VERIFY", strconv.FormatBool(c.X509Verify)},
		{"API_VERSION", c.APIVersion},
	}

	var b strings.Builder
	for _, v := range vars {
		fmt.Fprintf(&b, "export %s%s=%s\n", EnvPrefix, v.key, strconv.Quote(v.value))
	}
	return b.String()
}

// LoggingFromEnv reads LOG_LEVEL and LOG_FORMAT
func LoggingFromEnv() LoggingConfig {
	return LoggingConfig{
		Level:  strings.ToLower(os.Getenv("LOG_LEVEL")),
		Format: strings.ToLower(os.Getenv("LOG_FORMAT")),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or a plain number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
