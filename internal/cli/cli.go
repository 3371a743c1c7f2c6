package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dm3k/dm3k/pkg/buildinfo"
	"github.com/dm3k/dm3k/pkg/cache"
	"github.com/dm3k/dm3k/pkg/config"
	"github.com/dm3k/dm3k/pkg/document"
	apperr "github.com/dm3k/dm3k/pkg/errors"
	"github.com/dm3k/dm3k/pkg/pipeline"
	"github.com/dm3k/dm3k/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "dm3k"

// Log levels exported for use in main.go.
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

	// configPath is the --config flag; cfg is resolved lazily.
	configPath string
	cfg        *config.Config
	verbose    bool

	// solverURL is the --solver-url flag; it overrides [solver] url.
	solverURL string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "DM3K models, solves and draws resource allocation problems",
		Long: `DM3K is a toolkit for multi-dimensional knapsack style allocation problems.

Problems are described as documents of resource and activity classes, their
instances and the allocations between them. dm3k validates and converts those
documents, sends them to a solver service, lays out the solution matrix and
draws both the problem diagram and the solution.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/dm3k/dm3k.toml)")
	root.PersistentFlags().StringVar(&c.solverURL, "solver-url", "", "solver service URL (overrides the config file)")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.roundTripCommand())
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration and Runner Factory
// =============================================================================

// loadConfig resolves the configuration once per process.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, path, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	if c.solverURL != "" {
		if err := apperr.ValidateURL(c.solverURL); err != nil {
			return config.Config{}, fmt.Errorf("--solver-url: %w", err)
		}
		cfg.Solver.URL = c.solverURL
	}
	c.cfg = &cfg
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use. withSolver is false for
// commands that never contact the solver service.
func (c *CLI) newRunner(ctx context.Context, noCache, withSolver bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	var cc cache.Cache = cache.NewNullCache()
	if !noCache {
		if cc, err = cfg.Cache.OpenCache(ctx); err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
	}
	var s pipeline.Solver
	if withSolver {
		s = cfg.Solver.Client(c.Logger)
	}
	return pipeline.NewRunner(cc, cfg.Cache.Keyer(), s, c.Logger), nil
}

// newStore opens the configured document store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := cfg.Store.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineDefaults seeds pipeline options from the config file; flags
// override the result.
func (c *CLI) pipelineDefaults() (pipeline.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Algorithm:  cfg.Solver.Algorithm,
		WidthFunc:  cfg.Layout.WidthFunc,
		FrameWidth: cfg.Layout.FrameWidth,
		Logger:     c.Logger,
	}, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// =============================================================================
// Paths and Files
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/dm3k/).
func cacheDir() (string, error) {
	return config.CacheDir()
}

// basePath derives the base output path from the output and input file
// paths. Known format extensions are stripped from output.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] || pipeline.ValidDiagramFormats[ext] {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return output
}

// loadDocument reads a document or export wrapper; "-" reads JSON from
// stdin.
func loadDocument(path string) (document.Document, error) {
	if path == "-" {
		return document.Read(os.Stdin)
	}
	d, err := document.ReadFile(path)
	if err != nil {
		return document.Document{}, err
	}
	return d, nil
}

// writeArtifacts writes each artifact to base.<format> and returns the
// written paths in format order.
func writeArtifacts(base string, formats []string, artifacts map[string][]byte) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
