package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitdex/internal/server"
	"github.com/matzehuels/traitdex/pkg/cache"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	root string
	addr string
	ttl  time.Duration
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve [doc-root]",
		Short: "Serve implementor fragments over HTTP",
		Long: `Scan a documentation tree and serve its implementor fragments over HTTP.

Fragments are served at the same paths a static doc host would use, so
consumer pages work unchanged:

  GET /implementors/core/ops/drop/trait.Drop.js
  GET /api/traits
  GET /api/traits/{trait}
  GET /healthz`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.root = args[0]
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			addr := opts.addr
			if addr == "" {
				addr = cfg.Serve.Addr
			}
			ttl := opts.ttl
			if ttl == 0 {
				ttl = cfg.CacheTTL()
			}

			ctx := cmd.Context()
			set, root, err := c.scanDocset(ctx, opts.root, "")
			if err != nil {
				return err
			}

			store := cache.Instrument(c.newCache(ctx, cfg), "fragment")
			defer store.Close()

			srv := server.New(server.Config{Addr: addr, CacheTTL: ttl}, set, root, store, loggerFromContext(ctx))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().DurationVar(&opts.ttl, "cache-ttl", 0, "fragment cache TTL (default from config, else 1h)")

	return cmd
}
