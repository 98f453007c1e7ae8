package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"teatrack/internal/config"
	"teatrack/internal/logging"
	"teatrack/internal/store"
	"teatrack/internal/tracker"
)

type commandContext struct {
	configFlag *string
	quietFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, quietFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, quietFlag: quietFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withTracker opens the store for the duration of one command invocation.
// Commands share the database with any concurrently running workers, so the
// store is opened fresh each time rather than held open.
func (c *commandContext) withTracker(fn func(*tracker.Tracker) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.buildLogger(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(tracker.New(cfg, st, logger))
}

// buildLogger honors the [logging] config section, writing to the configured
// outputs and the shared log file. --quiet swaps in the discarding logger.
func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, error) {
	if c.quietFlag != nil && *c.quietFlag {
		return logging.NewNop(), nil
	}
	return logging.NewFromConfig(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
