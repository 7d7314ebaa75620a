package app

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"betterauth/internal/crypto"
	"betterauth/internal/domain"
)

// ConfigFilename is read from the home directory by LoadConfig.
const ConfigFilename = "config.yaml"

// RetryConfig bounds transport retries. A zero MaxElapsed disables them.
type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxElapsed      time.Duration `yaml:"max_elapsed"`
}

// RateLimitConfig caps outgoing requests. A zero PerSecond disables it.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Config holds runtime wiring options for building the client.
type Config struct {
	Home       string          `yaml:"-"`          // key and value files, e.g. $HOME/.betterauth
	ServerURL  string          `yaml:"server_url"` // e.g. http://127.0.0.1:8080
	Algorithm  string          `yaml:"algorithm"`  // p256 or ed25519
	Paths      domain.Paths    `yaml:"paths"`
	Timeout    time.Duration   `yaml:"timeout"`
	Retry      RetryConfig     `yaml:"retry"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	LogLevel   string          `yaml:"log_level"`
	LogFile    string          `yaml:"log_file"`
	Passphrase string          `yaml:"-"`

	// InMemory keeps keys, identity, device and token in memory only.
	InMemory bool `yaml:"-"`

	HTTP       *http.Client                `yaml:"-"` // optional; defaults to a client with Timeout
	Registerer prometheus.Registerer       `yaml:"-"` // optional; metrics are off when nil
	Network    domain.Network              `yaml:"-"` // optional; replaces the HTTP transport
	ServerKeys domain.VerificationKeyStore `yaml:"-"` // optional; defaults to the pinned key file
	Clock      func() time.Time            `yaml:"-"` // optional; defaults to time.Now
}

// DefaultHome returns ~/.betterauth.
func DefaultHome() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".betterauth"), nil
}

// LoadConfig reads home/config.yaml. A missing file yields the defaults.
func LoadConfig(home string) (Config, error) {
	cfg := Config{Home: home}
	b, err := os.ReadFile(filepath.Join(home, ConfigFilename))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", ConfigFilename, err)
		}
		cfg.Home = home
	}
	return cfg.WithDefaults(), nil
}

// Save writes the file-backed fields to home/config.yaml.
func (c Config) Save() error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(c.Home, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.Home, ConfigFilename), b, 0o600)
}

// WithDefaults fills every unset field.
func (c Config) WithDefaults() Config {
	if c.Algorithm == "" {
		c.Algorithm = string(crypto.P256)
	}
	c.Paths = c.Paths.Merge(domain.DefaultPaths())
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = 250 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFile == "" {
		c.LogFile = "console"
	}
	return c
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if !c.InMemory && c.Home == "" {
		result = multierror.Append(result, errors.New("home directory is required"))
	}
	if !c.InMemory && c.Passphrase == "" {
		result = multierror.Append(result, errors.New("passphrase is required to protect keys"))
	}
	if _, err := crypto.ParseAlgorithm(c.Algorithm); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Network == nil {
		if c.ServerURL == "" {
			result = multierror.Append(result, errors.New("server url is required"))
		} else if u, err := url.Parse(c.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
			result = multierror.Append(result, fmt.Errorf("server url %q is not absolute", c.ServerURL))
		}
	}
	if c.Retry.MaxElapsed < 0 {
		result = multierror.Append(result, errors.New("retry.max_elapsed must not be negative"))
	}
	if c.RateLimit.PerSecond < 0 {
		result = multierror.Append(result, errors.New("rate_limit.per_second must not be negative"))
	}
	return result.ErrorOrNil()
}
