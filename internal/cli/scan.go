package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/traitdex/pkg/docset"
	"github.com/matzehuels/traitdex/pkg/errors"
	"github.com/matzehuels/traitdex/pkg/index"
)

// scanOpts holds the command-line flags for the scan command.
type scanOpts struct {
	root   string // doc root directory
	trait  string // optional trait filter
	output string // output file path (stdout if empty and requested)
	asJSON bool   // emit the scanned tables as JSON
}

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	opts := scanOpts{}

	cmd := &cobra.Command{
		Use:   "scan [doc-root]",
		Short: "Scan a documentation tree for implementor fragments",
		Long: `Scan a rendered documentation tree for implementor fragments and merge
them into per-trait tables.

Examples:
  traitdex scan ./target/doc
  traitdex scan ./target/doc --trait core::ops::drop::Drop
  traitdex scan ./target/doc --json -o tables.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.root = args[0]
			}
			return c.runScan(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.trait, "trait", "", "limit output to one trait path")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "emit scanned tables as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func (c *CLI) runScan(ctx context.Context, opts *scanOpts) error {
	set, root, err := c.scanDocset(ctx, opts.root, opts.trait)
	if err != nil {
		return err
	}

	if opts.asJSON {
		return writeTables(set, opts.trait, opts.output, loggerFromContext(ctx))
	}

	printSuccess("Scanned %s", root)
	printStats(set.Len(), set.FragmentCount(), totalCrates(set))
	if opts.trait != "" {
		tbl, _ := set.Table(opts.trait)
		printDetail("%s: %d crates, %d records", opts.trait, tbl.Len(), tbl.RecordCount())
	}
	printNextStep("Inspect the traits", "traitdex list "+root)
	return nil
}

// scanDocset resolves the doc root from the flag or config, scans it, and
// applies the optional trait filter.
func (c *CLI) scanDocset(ctx context.Context, root, trait string) (*docset.Set, string, error) {
	if root == "" {
		cfg, err := c.loadConfig()
		if err != nil {
			return nil, "", err
		}
		root = cfg.Scan.Root
		if trait == "" {
			trait = cfg.Scan.Trait
		}
	}
	if root == "" {
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "no doc root given (argument or [scan].root in config)")
	}

	ds, err := docset.New(root)
	if err != nil {
		return nil, "", err
	}

	prog := newProgress(loggerFromContext(ctx))
	set, err := ds.Scan(ctx)
	if err != nil {
		return nil, "", err
	}
	prog.done(fmt.Sprintf("Scanned %d traits from %d fragments", set.Len(), set.FragmentCount()))

	if trait != "" {
		if err := errors.ValidateTraitPath(trait); err != nil {
			return nil, "", err
		}
		if _, ok := set.Table(trait); !ok {
			return nil, "", errors.New(errors.ErrCodeTraitNotFound, "trait %s not in docset", trait)
		}
	}
	return set, root, nil
}

// totalCrates counts distinct crate entries across all trait tables.
func totalCrates(set *docset.Set) int {
	n := 0
	for _, trait := range set.Traits() {
		tbl, _ := set.Table(trait)
		n += tbl.Len()
	}
	return n
}

// tableExport pairs a trait with its table for JSON output.
// A top-level array keeps trait order stable.
type tableExport struct {
	Trait string       `json:"trait"`
	Table *index.Table `json:"table"`
}

// writeTables emits the scanned tables as JSON to path (or stdout).
func writeTables(set *docset.Set, trait, path string, logger *log.Logger) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	var exports []tableExport
	for _, t := range set.Traits() {
		if trait != "" && t != trait {
			continue
		}
		tbl, _ := set.Table(t)
		exports = append(exports, tableExport{Trait: t, Table: tbl})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exports); err != nil {
		return err
	}
	if path != "" {
		logger.Infof("Wrote %d tables to %s", len(exports), path)
	}
	return nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
