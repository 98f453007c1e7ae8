package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateBrew(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateStore() error {
	if strings.ContainsRune(c.Store.FileName, '/') {
		return fmt.Errorf("store.file_name %q must be a bare file name", c.Store.FileName)
	}
	if c.Store.BusyTimeoutMillis < minStoreBusyTimeoutMillis {
		return fmt.Errorf("store.busy_timeout_millis must be at least %d", minStoreBusyTimeoutMillis)
	}
	if c.Store.ConflictRetries < 1 || c.Store.ConflictRetries > maxConflictRetries {
		return fmt.Errorf("store.conflict_retries must be between 1 and %d", maxConflictRetries)
	}
	return nil
}

func (c *Config) validateBrew() error {
	if c.Brew.DefaultExpectedSeconds <= 0 || c.Brew.DefaultExpectedSeconds > maxBrewDefaultExpectedSeconds {
		return fmt.Errorf("brew.default_expected_seconds must be between 1 and %d", maxBrewDefaultExpectedSeconds)
	}
	if c.Brew.ReclaimGraceSeconds < 0 {
		return errors.New("brew.reclaim_grace_seconds must not be negative")
	}
	return nil
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
	return nil
}
