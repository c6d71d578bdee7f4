// Package config loads the optional TOML configuration for the graphclient
// CLI. The file supplies defaults for the same knobs the flags expose; flags
// always win. The library itself never reads this file — its only input files
// are the JSON key file and the token cache.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk CLI configuration.
type Config struct {
	KeyFile         string `toml:"keyfile"`
	BaseURL         string `toml:"base_url"`
	Insecure        bool   `toml:"insecure"`
	Proxy           string `toml:"proxy"`
	SessionEndpoint string `toml:"session_endpoint"`
	GraphQLEndpoint string `toml:"graphql_endpoint"`
	ManageToken     bool   `toml:"manage_token"`
	KeepToken       bool   `toml:"keep_token"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	LogLevel        string `toml:"log_level"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		SessionEndpoint: "session",
		GraphQLEndpoint: "graphql",
		ManageToken:     true,
		KeepToken:       true,
		TimeoutSeconds:  30,
		LogLevel:        "info",
	}
}

// Validate checks value constraints. Unknown keys are handled separately at
// decode time.
func Validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q (want debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: timeout_seconds must be positive, got %d", cfg.TimeoutSeconds)
	}

	return nil
}

// checkUnknownKeys rejects keys the decoder did not consume. Silently
// ignoring a typo in a config file leads to hard-to-debug behavior.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}

	return fmt.Errorf("config: unknown key(s): %s", strings.Join(keys, ", "))
}
