package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitdex/pkg/errors"
	"github.com/matzehuels/traitdex/pkg/snapshot"
)

// publishOpts holds the command-line flags for the publish command.
type publishOpts struct {
	root     string
	trait    string
	mongoURI string
}

// publishCommand creates the publish command and its list subcommand.
func (c *CLI) publishCommand() *cobra.Command {
	opts := publishOpts{}

	cmd := &cobra.Command{
		Use:   "publish [doc-root]",
		Short: "Publish trait snapshots to the snapshot store",
		Long: `Scan a documentation tree and publish its trait tables as snapshots.
Republishing a trait for the same doc root replaces its previous snapshot.

Examples:
  traitdex publish ./target/doc
  traitdex publish ./target/doc --trait core::ops::drop::Drop`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.root = args[0]
			}
			return c.runPublish(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.trait, "trait", "", "limit publishing to one trait path")
	cmd.PersistentFlags().StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB connection string (overrides config)")

	cmd.AddCommand(c.publishListCommand(&opts))

	return cmd
}

func (c *CLI) runPublish(ctx context.Context, opts *publishOpts) error {
	set, root, err := c.scanDocset(ctx, opts.root, opts.trait)
	if err != nil {
		return err
	}

	store, err := c.snapshotStore(ctx, opts.mongoURI)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	published := 0
	for _, trait := range set.Traits() {
		if opts.trait != "" && trait != opts.trait {
			continue
		}
		tbl, _ := set.Table(trait)
		snap, err := snapshot.New(trait, root, tbl)
		if err != nil {
			return err
		}
		if err := store.Put(ctx, snap); err != nil {
			return err
		}
		logger.Debug("published snapshot", "trait", trait, "id", snap.ID)
		published++
	}
	prog.done(fmt.Sprintf("Published %d snapshots", published))

	printSuccess("Published %d snapshots from %s", published, root)
	return nil
}

// publishListCommand creates the "publish list" subcommand.
func (c *CLI) publishListCommand(opts *publishOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List published snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.snapshotStore(ctx, opts.mongoURI)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			snaps, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				printInfo("No snapshots published")
				return nil
			}
			for _, snap := range snaps {
				printDetail("%s  %s  %d crates, %d records  %s",
					snap.CreatedAt.Format("2006-01-02 15:04"), snap.Trait,
					snap.Crates, snap.Records, snap.DocRoot)
			}
			return nil
		},
	}
}

// snapshotStore connects to the configured MongoDB snapshot store.
func (c *CLI) snapshotStore(ctx context.Context, uriOverride string) (snapshot.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	uri := uriOverride
	if uri == "" {
		uri = cfg.Publish.MongoURI
	}
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no MongoDB URI given (--mongo-uri or [publish].mongo_uri in config)")
	}
	return snapshot.NewMongoStore(ctx, snapshot.MongoConfig{
		URI:        uri,
		Database:   cfg.Publish.Database,
		Collection: cfg.Publish.Collection,
	})
}
