package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitdex/pkg/cache"
	"github.com/matzehuels/traitdex/pkg/errors"
	"github.com/matzehuels/traitdex/pkg/implgraph"
	"github.com/matzehuels/traitdex/pkg/index"
)

// Graph output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	root      string
	trait     string
	format    string
	output    string
	detailed  bool
	synthetic bool
	noCache   bool
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{}

	cmd := &cobra.Command{
		Use:   "graph [doc-root]",
		Short: "Render a trait's implementors as a diagram",
		Long: `Render the implementor table of one trait as a node-link diagram,
either as Graphviz DOT or as SVG.

Examples:
  traitdex graph ./target/doc --trait core::ops::drop::Drop
  traitdex graph ./target/doc --trait core::ops::drop::Drop -f svg -o drop.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.root = args[0]
			}
			return c.runGraph(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.trait, "trait", "", "trait path to graph (required)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatDOT, "output format (dot or svg)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label types with full paths")
	cmd.Flags().BoolVar(&opts.synthetic, "synthetic", false, "include synthetic impls")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")
	_ = cmd.MarkFlagRequired("trait")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, opts *graphOpts) error {
	if opts.format != formatDOT && opts.format != formatSVG {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (dot or svg)", opts.format)
	}

	set, _, err := c.scanDocset(ctx, opts.root, opts.trait)
	if err != nil {
		return err
	}
	tbl, _ := set.Table(opts.trait)

	artifact, cached, err := c.graphArtifact(ctx, opts, tbl)
	if err != nil {
		return err
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(artifact); err != nil {
		return err
	}

	if opts.output != "" {
		printSuccess("Rendered %s graph for %s", opts.format, opts.trait)
		printFile(opts.output)
		if cached {
			printDetail("served from cache")
		}
	}
	return nil
}

// graphArtifact produces the requested artifact, consulting the cache for
// SVG renders. DOT output is cheap enough to always recompute.
func (c *CLI) graphArtifact(ctx context.Context, opts *graphOpts, tbl *index.Table) ([]byte, bool, error) {
	dot := implgraph.ToDOT(opts.trait, tbl, implgraph.Options{
		Detailed:  opts.detailed,
		Synthetic: opts.synthetic,
	})
	if opts.format == formatDOT {
		return []byte(dot), false, nil
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, false, err
	}
	store := cache.NewNullCache()
	if !opts.noCache {
		store = cache.Instrument(c.newCache(ctx, cfg), "graph")
	}
	defer store.Close()

	tblJSON, err := json.Marshal(tbl)
	if err != nil {
		return nil, false, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), fmt.Sprintf("synthetic=%t", opts.synthetic))
	key := keyer.GraphKey(cache.Hash(tblJSON), cache.GraphKeyOpts{
		Format:   opts.format,
		Detailed: opts.detailed,
	})

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	sp := newSpinnerWithContext(ctx, "Rendering SVG")
	sp.Start()
	svg, err := implgraph.RenderSVG(dot)
	if err != nil {
		sp.Stop()
		if sp.Cancelled() {
			return nil, false, ctx.Err()
		}
		return nil, false, err
	}
	sp.StopWithSuccess(fmt.Sprintf("Rendered %d crates", tbl.Len()))

	if err := store.Set(ctx, key, svg, 0); err != nil {
		loggerFromContext(ctx).Warn("graph cache write failed", "error", err)
	}
	return svg, false, nil
}
