package config

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-merkle/internal/log"
	"github.com/Klingon-tech/klingnet-merkle/internal/txset"
	"github.com/Klingon-tech/klingnet-merkle/pkg/types"
)

// Validate checks config for obvious operator mistakes and normalizes
// the format name and expected root.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	format, err := txset.ParseFormat(cfg.Input.Format)
	if err != nil {
		return fmt.Errorf("input.format: %w", err)
	}
	cfg.Input.Format = string(format)

	if cfg.Log.Level != "" && !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}

	if cfg.Expect != "" {
		s := strings.ToLower(strings.TrimSpace(cfg.Expect))
		if _, err := types.HexToHash(s); err != nil {
			return fmt.Errorf("expect must be a %d-byte hex root: %w", types.HashSize, err)
		}
		cfg.Expect = s
	}

	return nil
}
