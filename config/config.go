// Package config handles klingnet-merkle configuration.
//
// Values are layered: built-in defaults, then the config file, then
// command-line flags.
package config

import (
	"github.com/Klingon-tech/klingnet-merkle/pkg/types"
)

// DefaultConfigFile is the config file read when --config is not given.
const DefaultConfigFile = "klingnet-merkle.conf"

// Config holds runtime configuration for the CLI.
type Config struct {
	// Transaction input
	Input InputConfig

	// Root the sender claims, checked by the verify command (hex).
	Expect string `conf:"expect"`

	// Terminal output
	Output OutputConfig

	// Logging
	Log LogConfig
}

// InputConfig selects where transactions are read from.
type InputConfig struct {
	File   string `conf:"input.file"`   // Path, or "-" for stdin
	Format string `conf:"input.format"` // lines, hex, json or cbor
}

// OutputConfig holds terminal output settings.
type OutputConfig struct {
	Color bool `conf:"output.color"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// ExpectedRoot returns the claimed root, if one is configured.
// Call Validate first; an unparsable value reports false.
func (c *Config) ExpectedRoot() (types.Hash, bool) {
	if c.Expect == "" {
		return types.Hash{}, false
	}
	h, err := types.HexToHash(c.Expect)
	if err != nil {
		return types.Hash{}, false
	}
	return h, true
}
