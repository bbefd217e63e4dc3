package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRouting(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.FallbackDir == "" {
		return errors.New("paths.fallback_dir must be set")
	}
	return nil
}

func (c *Config) validateRouting() error {
	auto := c.Routing.AutoApproveThreshold
	ask := c.Routing.AskThreshold
	if auto < 0 || auto > 100 {
		return fmt.Errorf("routing.auto_approve_threshold must be between 0 and 100, got %d", auto)
	}
	if ask < 0 || ask > 100 {
		return fmt.Errorf("routing.ask_threshold must be between 0 and 100, got %d", ask)
	}
	if ask > auto {
		return fmt.Errorf("routing.ask_threshold (%d) must not exceed routing.auto_approve_threshold (%d)", ask, auto)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
