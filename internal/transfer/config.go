package transfer

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds import and export settings.
type Config struct {
	ErrorLimit    int    `toml:"error_limit"`
	FabricDir     string `toml:"fabric_dir"`
	WatchDebounce string `toml:"watch_debounce"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ErrorLimit    string
	FabricDir     string
	WatchDebounce string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ErrorLimit != 0 {
		c.ErrorLimit = overlay.ErrorLimit
	}
	if overlay.FabricDir != "" {
		c.FabricDir = overlay.FabricDir
	}
	if overlay.WatchDebounce != "" {
		c.WatchDebounce = overlay.WatchDebounce
	}
}

// WatchDebounceDuration parses WatchDebounce. Call after Finalize.
func (c *Config) WatchDebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.WatchDebounce)
	return d
}

func (c *Config) loadDefaults() {
	if c.ErrorLimit == 0 {
		c.ErrorLimit = 10
	}
	if c.WatchDebounce == "" {
		c.WatchDebounce = "500ms"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ErrorLimit != "" {
		if v := os.Getenv(env.ErrorLimit); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.ErrorLimit = n
			}
		}
	}
	if env.FabricDir != "" {
		if v := os.Getenv(env.FabricDir); v != "" {
			c.FabricDir = v
		}
	}
	if env.WatchDebounce != "" {
		if v := os.Getenv(env.WatchDebounce); v != "" {
			c.WatchDebounce = v
		}
	}
}

func (c *Config) validate() error {
	if c.ErrorLimit < 1 {
		return fmt.Errorf("error_limit must be positive")
	}
	if _, err := time.ParseDuration(c.WatchDebounce); err != nil {
		return fmt.Errorf("invalid watch_debounce: %w", err)
	}
	return nil
}
