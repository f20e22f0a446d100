package config

import "time"

// Config holds runtime settings for the postboard CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the postboard HTTP API.
//   - SessionDir: directory (relative to the working directory) holding the saved login.
//   - RequestTimeout: upper bound for a single API call.
type Config struct {
	ServerEndpointAddr string
	SessionDir         string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:3000"
	c.SessionDir = ".postboard"
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
