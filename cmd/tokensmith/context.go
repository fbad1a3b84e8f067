package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"tokensmith/internal/config"
	"tokensmith/internal/ledger"
	"tokensmith/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	verbose      *int

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, verbose *int) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		verbose:      verbose,
	}
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

// logLevel resolves the effective level: --log-level wins over -v, which
// wins over the configured level.
func (c *commandContext) logLevel(cfg *config.Config) string {
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		return strings.TrimSpace(*c.logLevelFlag)
	}
	if c.verbose != nil && *c.verbose > 0 {
		return "debug"
	}
	return cfg.Logging.Level
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	effective := *cfg
	effective.Logging.Level = c.logLevel(cfg)
	return logging.NewFromConfig(&effective)
}

func (c *commandContext) openLedger(cfg *config.Config) (*ledger.Store, error) {
	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, nil
}

// withBuildLock holds the build directory lock while fn runs.
func withBuildLock(cfg *config.Config, fn func() error) error {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another tokensmith run is using %s", cfg.Paths.BuildDir)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
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
