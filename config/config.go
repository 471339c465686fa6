package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentroom/internal/util"
	"github.com/hupe1980/agentroom/logging"
)

// DefaultEnvPrefix prefixes environment overrides, e.g. AGENTROOM_ADDR.
const DefaultEnvPrefix = "AGENTROOM"

// Model providers understood by the façade.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config holds the server settings.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr" env:"ADDR"`
	// RoomsDir is scanned for *.yml / *.yaml room files.
	RoomsDir string `yaml:"rooms_dir" env:"ROOMS_DIR"`
	// MaxIterations caps turn loops of rooms without their own cap.
	MaxIterations int `yaml:"max_iterations" env:"MAX_ITERATIONS"`
	// MaxConcurrentRuns limits running loops per connection.
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" env:"MAX_CONCURRENT_RUNS"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	Provider string `yaml:"provider" env:"PROVIDER"`
	Model    string `yaml:"model" env:"MODEL"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL"`
	APIKey   string `yaml:"api_key" env:"API_KEY"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:              ":5000",
		RoomsDir:          "rooms",
		MaxIterations:     10,
		MaxConcurrentRuns: 4,
		ShutdownTimeout:   10 * time.Second,
		Provider:          ProviderOpenAI,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	var v util.Validator

	v.NotBlank("addr", c.Addr)
	v.NotBlank("rooms_dir", c.RoomsDir)
	v.Check(c.MaxIterations > 0, "max_iterations", c.MaxIterations, "must be positive")
	v.Check(c.MaxConcurrentRuns > 0, "max_concurrent_runs", c.MaxConcurrentRuns, "must be positive")
	v.Check(c.ShutdownTimeout >= 0, "shutdown_timeout", c.ShutdownTimeout, "must not be negative")
	v.OneOf("provider", strings.ToLower(c.Provider), ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderMock)
	v.OneOf("log_format", strings.ToLower(c.LogFormat), "text", "json")

	_, err := logging.ParseLevel(c.LogLevel)
	v.Check(err == nil, "log_level", c.LogLevel, "%v", err)

	return v.Err()
}

// Loader resolves a Config from defaults, an optional YAML file and the
// environment.
type Loader struct {
	configPath string
	envPrefix  string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a loader with the default prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: DefaultEnvPrefix, lookupEnv: os.LookupEnv}
}

// WithConfigPath sets the YAML file. A missing file is not an error.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}

		key := l.envPrefix + "_" + tag

		value, ok := l.lookupEnv(key)
		if !ok || value == "" {
			continue
		}

		if err := setFieldValue(v.Field(i), value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}

		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	}

	return nil
}
