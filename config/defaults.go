package config

import "github.com/Klingon-tech/klingnet-merkle/internal/txset"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			File:   txset.Stdin,
			Format: string(txset.FormatLines),
		},
		Output: OutputConfig{
			Color: true,
		},
		Log: LogConfig{
			Level: "warn",
			JSON:  false,
		},
	}
}
