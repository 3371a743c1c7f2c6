package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dm3k/dm3k/internal/server"
	"github.com/dm3k/dm3k/pkg/metrics"
	"github.com/dm3k/dm3k/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The API validates, converts, solves, lays out and draws documents like the
CLI does, and keeps documents in the configured store under /api/documents.
Prometheus metrics are served at /metrics. The server stops on SIGINT or
SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	reg := metrics.NewRegistry()
	observability.SetPipelineHooks(reg)
	observability.SetCacheHooks(reg)
	observability.SetHTTPHooks(reg)
	defer observability.Reset()

	runner, err := c.newRunner(ctx, noCache, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	defaults, err := c.pipelineDefaults()
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:     addr,
		Runner:   runner,
		Store:    st,
		Metrics:  reg,
		Defaults: defaults,
		Logger:   c.Logger,
	})

	printInfo("Listening on %s", StyleLink.Render("http://"+srv.Addr()))
	printDetail("Solver: %s", cfg.Solver.URL)
	printDetail("Store: %s  Cache: %s", cfg.Store.Backend, cfg.Cache.Backend)

	return srv.ListenAndServe(ctx)
}
