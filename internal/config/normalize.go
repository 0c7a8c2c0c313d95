package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// applyEnv fills settings the file left unset from the environment.
func (c *Config) applyEnv() {
	if c.Codec.CPUOnly == nil {
		if value, ok := lookupEnv(EnvCPUOnly, EnvLegacyCPUOnly); ok {
			// Only the exact value "1" forces CPU mode.
			forced := strings.TrimSpace(value) == "1"
			c.Codec.CPUOnly = &forced
		}
	}
	if strings.TrimSpace(c.Codec.Quality) == "" {
		if value, ok := lookupEnv(EnvQuality, EnvLegacyQuality); ok {
			c.Codec.Quality = value
		}
	}
}

func lookupEnv(keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	return "", false
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCodec()
	c.normalizeLogging()
	c.Batch.DefaultFormat = strings.ToLower(strings.TrimSpace(c.Batch.DefaultFormat))
	if c.Batch.DefaultFormat == "" {
		c.Batch.DefaultFormat = defaultBatchFormat
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, "history.db")
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCodec() {
	c.Codec.Backend = strings.ToLower(strings.TrimSpace(c.Codec.Backend))
	if c.Codec.Backend == "" {
		c.Codec.Backend = defaultCodecBackend
	}
	c.Codec.Quality = strings.ToLower(strings.TrimSpace(c.Codec.Quality))
	if c.Codec.Quality == "" {
		c.Codec.Quality = defaultCodecQuality
	}
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
