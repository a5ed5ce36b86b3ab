package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitdex/pkg/fragment"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	root  string // doc root to scan
	out   string // output directory
	trait string // optional trait filter
}

// renderCommand creates the render command. It re-renders scanned tables
// back to fragment files, normalizing formatting and merging multi-file
// traits into one fragment each.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [doc-root]",
		Short: "Re-render scanned tables as fragment files",
		Long: `Re-render scanned implementor tables as fragment files under an output
directory, one file per trait at its doc-tree path.

Examples:
  traitdex render ./target/doc -o ./out
  traitdex render ./target/doc -o ./out --trait core::ops::drop::Drop`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.root = args[0]
			}
			set, _, err := c.scanDocset(cmd.Context(), opts.root, opts.trait)
			if err != nil {
				return err
			}

			written := 0
			for _, trait := range set.Traits() {
				if opts.trait != "" && trait != opts.trait {
					continue
				}
				tbl, _ := set.Table(trait)
				data, err := fragment.Render(tbl)
				if err != nil {
					return err
				}
				path := filepath.Join(opts.out, "implementors", fragmentPath(trait))
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				printFile(path)
				written++
			}

			printSuccess("Rendered %d fragments", written)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.trait, "trait", "", "limit rendering to one trait path")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "out", "output directory")

	return cmd
}

// fragmentPath maps a trait path back to its fragment file location
// relative to the implementors directory.
func fragmentPath(trait string) string {
	segments := strings.Split(trait, "::")
	name := segments[len(segments)-1]
	dir := filepath.Join(segments[:len(segments)-1]...)
	return filepath.Join(dir, "trait."+name+".js")
}
