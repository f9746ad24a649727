// Package cli implements the zinefold command-line interface.
//
// # Commands
//
//   - impose: Render every sheet side of a job (optionally binding a PDF)
//   - plan: Show which page lands in which slot, as a table or interactively
//   - layout: Show the grid and pixel geometry chosen for the paper
//   - cache: Manage the measurement cache
//   - completion: Generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --log-file for a rotated copy of the log. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/zinefold/pkg/buildinfo"
	"github.com/matzehuels/zinefold/pkg/cache"
	"github.com/matzehuels/zinefold/pkg/config"
	"github.com/matzehuels/zinefold/pkg/pipeline"
	"github.com/matzehuels/zinefold/pkg/raster"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "zinefold"

	// defaultConfigFile is read when no job file is named.
	defaultConfigFile = "zinefold.toml"
)

// Log levels accepted by New.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out     io.Writer
	verbose bool
	logFile string
	envFile string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Zinefold imposes scanned zine spreads onto printable booklet sheets",
		Long:         `Zinefold turns a sequence of scanned zine spreads into duplex sheet images that, once printed, folded and cut, read in order.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			if err := loadEnv(c.envFile); err != nil {
				return err
			}
			if c.logFile != "" {
				c.Logger.SetOutput(io.MultiWriter(c.out, newLogFile(c.logFile)))
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.logFile, "log-file", "", "also write logs to this file (rotated)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "load environment variables from this file if it exists")

	root.AddCommand(c.imposeCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadEnv reads KEY=value pairs from path. A missing file is not an error;
// variables already set in the environment win.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. A positive timeout
// replaces the job's compositor.timeout.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool, timeout time.Duration) (*pipeline.Runner, error) {
	if timeout <= 0 {
		d, err := cfg.Timeout()
		if err != nil {
			return nil, err
		}
		timeout = d
	}
	store, err := newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	comp := raster.NewMagick(cfg.Compositor.Binary, timeout, c.Logger)
	return pipeline.NewRunner(store, newKeyer(store), comp, c.Logger), nil
}

// newKeyer scopes keys by host when the cache is shared: measurement keys
// contain absolute paths, which only identify a file on one machine.
func newKeyer(store cache.Cache) cache.Keyer {
	if _, shared := store.(*cache.RedisCache); !shared {
		return cache.NewDefaultKeyer()
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), host+":")
}

// newCache selects the measurement cache: Redis when ZINEFOLD_REDIS_URL is
// set, otherwise files under the user cache directory.
func newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if url := os.Getenv(cache.RedisURLEnv); url != "" {
		rc, err := cache.NewRedisCache(ctx, url, cache.DefaultRedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// loadConfig reads the job named by args, or the default job file.
func loadConfig(args []string) (*config.Config, error) {
	path := defaultConfigFile
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/zinefold/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
