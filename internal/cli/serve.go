package cli

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackadvisor/internal/server"
	"github.com/matzehuels/stackadvisor/pkg/advise"
	"github.com/matzehuels/stackadvisor/pkg/observability"
	"github.com/matzehuels/stackadvisor/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	kbOpts
	addr         string
	maxTimeLimit time.Duration
	ttl          time.Duration
}

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:         ":8080",
		maxTimeLimit: server.DefaultMaxTimeLimit,
		ttl:          store.DefaultTTL,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the advise HTTP API",
		Long: `Run the advise HTTP API.

Reports are kept in Redis when STACKADVISOR_REDIS_URL is set and in memory
otherwise. Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			hooks := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
			observability.SetResolverHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetHTTPHooks(hooks)

			kb, err := c.openKnowledgeBase(ctx, opts.kbOpts)
			if err != nil {
				return err
			}
			runner := advise.NewRunner(kb, nil, c.Logger)
			defer runner.Close()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(runner, st, c.Logger, server.Options{
				MaxTimeLimit: opts.maxTimeLimit,
				TTL:          opts.ttl,
			})
			go c.cleanupLoop(cmd, st)
			return srv.ListenAndServe(ctx, opts.addr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", opts.addr, "listen address")
	f.StringVar(&opts.path, "kb", "", "knowledge base snapshot (YAML)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	f.DurationVar(&opts.maxTimeLimit, "max-time-limit", opts.maxTimeLimit, "upper bound for per-request time limits")
	f.DurationVar(&opts.ttl, "report-ttl", opts.ttl, "how long reports are kept")
	return cmd
}

// cleanupLoop drops expired reports hourly until the command's context ends.
func (c *CLI) cleanupLoop(cmd *cobra.Command, st store.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-cmd.Context().Done():
			return
		case <-ticker.C:
			if err := st.Cleanup(cmd.Context()); err != nil {
				c.Logger.Warn("report cleanup failed", "error", err)
			}
		}
	}
}
