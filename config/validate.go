package config

import (
	"fmt"
	"strings"
)

var logLevels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must be provided")
	}
	if prefix := c.AddressPrefix; prefix != strings.ToLower(prefix) || strings.ContainsAny(prefix, " 1") {
		return fmt.Errorf("AddressPrefix %q must be lower case and must not contain '1'", prefix)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if _, ok := logLevels[strings.ToLower(c.Logging.Level)]; !ok {
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("logging: rotation limits must not be negative")
	}
	if c.RateLimit.RatePerSecond < 0 {
		return fmt.Errorf("rate_limit: RatePerSecond must not be negative")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit: Burst must be at least 1")
	}
	if c.RateLimit.MaxClients < 1 {
		return fmt.Errorf("rate_limit: MaxClients must be at least 1")
	}
	return nil
}
