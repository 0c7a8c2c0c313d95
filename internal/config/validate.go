package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCodec(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateCodec() error {
	if strings.TrimSpace(c.Codec.Backend) == "" {
		return errors.New("codec.backend must be set")
	}
	if !slices.Contains(QualityNames, c.Codec.Quality) {
		return fmt.Errorf("codec.quality: unsupported value %q (want one of %s)", c.Codec.Quality, strings.Join(QualityNames, ", "))
	}
	return nil
}

func (c *Config) validateBatch() error {
	switch c.Batch.DefaultFormat {
	case "bc1", "bc3", "bc4", "bc5", "bc6", "bc7":
		return nil
	default:
		return fmt.Errorf("batch.default_format: unsupported value %q", c.Batch.DefaultFormat)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}
