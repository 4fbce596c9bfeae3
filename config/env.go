package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override, e.g. HGGCARD_NCATS=14.
const EnvPrefix = "HGGCARD_"

// ApplyEnv overrides fields from HGGCARD_* environment variables. Unset
// variables leave the field untouched; lists are comma separated.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
