package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeLogging()
	c.Review.Bind = strings.TrimSpace(c.Review.Bind)
	if c.Review.Bind == "" {
		c.Review.Bind = defaultReviewBind
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("DOCSHELF_STATE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.StateDir = strings.TrimSpace(value)
	}
	var err error
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.FallbackDir, err = expandPath(strings.TrimSpace(c.Paths.FallbackDir)); err != nil {
		return fmt.Errorf("paths.fallback_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.ChecksumCommand = strings.TrimSpace(c.Tools.ChecksumCommand)
	c.Tools.DuplicateCommand = strings.TrimSpace(c.Tools.DuplicateCommand)
	c.Tools.ValidatorCommand = strings.TrimSpace(c.Tools.ValidatorCommand)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
