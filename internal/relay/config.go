package relay

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey   = "OPENAI_API_KEY"
	EnvPort     = "PORT"
	EnvLogLevel = "RELAY_LOG_LEVEL"
)

// Config holds relay configuration
type Config struct {
	// Network settings
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// APIKey is the provider credential. It stays on the relay and is never
	// echoed to clients.
	APIKey string `yaml:"api_key"`

	Provider ProviderConfig `yaml:"provider"`

	// Request handling
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodySize    int64         `yaml:"max_body_size"`
	AllowedOrigins []string      `yaml:"allowed_origins"`

	// Optional TLS; when both files are set the relay serves HTTPS and,
	// with HTTP3 enabled, HTTP/3 on the same port.
	TLS TLSConfig `yaml:"tls"`

	// Logging
	LogLevel log.Level `yaml:"log_level"`
}

type ProviderConfig struct {
	URL         string        `yaml:"url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	HTTP3    bool   `yaml:"http3"`
}

func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// DefaultConfig returns default relay configuration
func DefaultConfig() Config {
	return Config{
		Host: "",
		Port: 3001,
		Provider: ProviderConfig{
			URL:         "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			Temperature: 0,
			Timeout:     60 * time.Second,
		},
		RequestTimeout: 90 * time.Second,
		MaxBodySize:    2 * 1024 * 1024, // 2MB
		AllowedOrigins: []string{"*"},
		LogLevel:       log.LevelInfo,
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path yields the
// defaults unchanged.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return config, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

// ApplyEnv overrides config from the environment. lookup is os.LookupEnv in
// production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigurationError{Field: EnvPort, Reason: fmt.Sprintf("%q is not a port number", v)}
		}
		c.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		level, err := log.ParseLevel(v)
		if err != nil {
			return &ConfigurationError{Field: EnvLogLevel, Reason: err.Error()}
		}
		c.LogLevel = level
	}
	return nil
}

// Validate reports the first setting that prevents the relay from serving.
func (c Config) Validate() error {
	switch {
	case c.APIKey == "":
		return &ConfigurationError{Field: EnvAPIKey, Reason: "missing provider credential"}
	case c.Port < 0 || c.Port > 65535:
		return &ConfigurationError{Field: "port", Reason: fmt.Sprintf("%d is out of range", c.Port)}
	case c.Provider.URL == "":
		return &ConfigurationError{Field: "provider.url", Reason: "must not be empty"}
	case c.Provider.Model == "":
		return &ConfigurationError{Field: "provider.model", Reason: "must not be empty"}
	case c.MaxBodySize <= 0:
		return &ConfigurationError{Field: "max_body_size", Reason: "must be positive"}
	case (c.TLS.CertFile == "") != (c.TLS.KeyFile == ""):
		return &ConfigurationError{Field: "tls", Reason: "cert_file and key_file must be set together"}
	case c.TLS.HTTP3 && !c.TLS.Enabled():
		return &ConfigurationError{Field: "tls.http3", Reason: "requires cert_file and key_file"}
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
