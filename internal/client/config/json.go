package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/blogclient/internal/flagx"
	"github.com/dmitrijs2005/blogclient/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations are
// timex.Duration, so "30s" and integer nanoseconds both work. Absent fields
// keep the values of earlier sources.
type JsonConfig struct {
	ServerBaseURL  string          `json:"server_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	StoreDSN       string          `json:"store"`
	LogLevel       string          `json:"log_level"`
	LogFormat      string          `json:"log_format"`
}

// parseJson overlays Config with values loaded from a JSON file named by
// -c/-config or, failing that, by $BLOG_CONFIG. Panics on read or unmarshal
// errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:], ConfigEnvKey)
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.StoreDSN != "" {
		cfg.StoreDSN = jc.StoreDSN
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
}
