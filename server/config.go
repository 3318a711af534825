// Package server wires together the sequitur debug server's router,
// middleware, and config loading.
package server

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the debug server's on-disk configuration, loaded from a TOML
// file at startup, mirroring the teacher's config-from-file idiom for
// anything beyond CLI flags.
type Config struct {
	Listen      string `toml:"listen"`
	AdminSecret string `toml:"admin_secret"`
	JWTSecret   string `toml:"jwt_secret"`
	Verbose     bool   `toml:"verbose"`

	UnauthDelayMillis int `toml:"unauth_delay_millis"`
}

// UnauthDelay returns the configured delay to apply before responding to an
// unauthenticated request, slowing down credential-guessing.
func (c Config) UnauthDelay() time.Duration {
	if c.UnauthDelayMillis <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.UnauthDelayMillis) * time.Millisecond
}

// LoadConfig reads and parses a TOML config file at path.
func LoadConfig(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, err
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	return c, nil
}
