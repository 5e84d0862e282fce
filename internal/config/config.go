// Package config loads the token proxy's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Defaults applied when a variable is unset or empty.
const (
	DefaultPort            = "8080"
	DefaultTokenURL        = "https://api.ebay.com/identity/v1/oauth2/token"
	DefaultScope           = "https://api.ebay.com/oauth/api_scope"
	DefaultUpstreamTimeout = 30 * time.Second
	DefaultEnvFile         = ".env"
)

// Config holds every setting of one proxy process.
//
// ClientID, ClientSecret and ProxyKey may be empty: the process still starts,
// and GET /token reports the problem per request.
type Config struct {
	Port string

	ClientID     string
	ClientSecret string
	ProxyKey     string

	TokenURL        string
	Scope           string
	UpstreamTimeout time.Duration
	UpstreamCAFile  string

	TLSCertFile string
	TLSKeyFile  string

	GRPCHealthPort string

	LogLevel  logrus.Level
	LogFormat string
}

// Lookup reads one variable. os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// LoadEnvFile merges path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load parses the process environment.
func Load() (*Config, error) {
	return Parse(os.LookupEnv)
}

// Parse builds a Config from lookup, applying defaults.
func Parse(lookup Lookup) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
		return def
	}

	cfg := &Config{
		Port:           get("PORT", DefaultPort),
		ClientID:       get("EBAY_CLIENT_ID", ""),
		ClientSecret:   get("EBAY_CLIENT_SECRET", ""),
		ProxyKey:       get("PROXY_KEY", ""),
		TokenURL:       get("EBAY_TOKEN_URL", DefaultTokenURL),
		Scope:          get("EBAY_SCOPE", DefaultScope),
		UpstreamCAFile: get("UPSTREAM_CA_FILE", ""),
		TLSCertFile:    get("TLS_CERT_FILE", ""),
		TLSKeyFile:     get("TLS_KEY_FILE", ""),
		GRPCHealthPort: get("GRPC_HEALTH_PORT", ""),
		LogFormat:      strings.ToLower(get("LOG_FORMAT", "text")),
	}

	if err := validatePort("PORT", cfg.Port); err != nil {
		return nil, err
	}
	if cfg.GRPCHealthPort != "" {
		if err := validatePort("GRPC_HEALTH_PORT", cfg.GRPCHealthPort); err != nil {
			return nil, err
		}
		if cfg.GRPCHealthPort == cfg.Port {
			return nil, fmt.Errorf("config: GRPC_HEALTH_PORT must differ from PORT (%s)", cfg.Port)
		}
	}

	timeout := get("UPSTREAM_TIMEOUT", "")
	cfg.UpstreamTimeout = DefaultUpstreamTimeout
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("config: invalid UPSTREAM_TIMEOUT %q: %w", timeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("config: UPSTREAM_TIMEOUT must be positive, got %s", d)
		}
		cfg.UpstreamTimeout = d
	}

	level, err := logrus.ParseLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("config: invalid LOG_FORMAT %q (want text or json)", cfg.LogFormat)
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, errors.New("config: TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	return cfg, nil
}

// Addr is the gateway listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// GRPCHealthAddr is the probe listen address, or "" when the probe is disabled.
func (c *Config) GRPCHealthAddr() string {
	if c.GRPCHealthPort == "" {
		return ""
	}
	return ":" + c.GRPCHealthPort
}

// NewLogger returns a logrus logger configured with the level and format.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func validatePort(name, value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("config: invalid %s %q", name, value)
	}
	return nil
}
