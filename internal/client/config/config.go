package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/blogclient/internal/client/client"
	"github.com/dmitrijs2005/blogclient/internal/logging"
)

// ConfigEnvKey names the environment variable with the JSON config path.
const ConfigEnvKey = "BLOG_CONFIG"

// Config holds runtime settings for the blog CLI.
//
// Fields:
//   - ServerBaseURL: root of the blog API, e.g. http://localhost:8000/api.
//   - RequestTimeout: upper bound for a single HTTP round trip.
//   - StoreDSN: where the session lives: "memory", a redis:// URL or an
//     SQLite file path.
//   - LogLevel, LogFormat: see logging.New.
type Config struct {
	ServerBaseURL  string        `env:"BLOG_SERVER_URL"`
	RequestTimeout time.Duration `env:"BLOG_REQUEST_TIMEOUT"`
	StoreDSN       string        `env:"BLOG_STORE"`
	LogLevel       string        `env:"BLOG_LOG_LEVEL"`
	LogFormat      string        `env:"BLOG_LOG_FORMAT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = client.DefaultBaseURL
	c.RequestTimeout = client.DefaultTimeout
	c.StoreDSN = "blog.db"
	c.LogLevel = "info"
	c.LogFormat = logging.FormatText
}

// Validate reports settings no component could work with.
func (c *Config) Validate() error {
	if c.ServerBaseURL == "" {
		return fmt.Errorf("server url must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.StoreDSN == "" {
		return fmt.Errorf("store must not be empty")
	}
	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, a JSON file (if present) and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
