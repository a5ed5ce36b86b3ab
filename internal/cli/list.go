package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/traitdex/pkg/docset"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "list [doc-root]",
		Short: "List the traits found in a documentation tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				root = args[0]
			}
			set, scanned, err := c.scanDocset(cmd.Context(), root, "")
			if err != nil {
				return err
			}
			if set.Len() == 0 {
				printInfo("No implementor fragments in %s", scanned)
				return nil
			}
			fmt.Println(renderTraitTable(set))
			printStats(set.Len(), set.FragmentCount(), totalCrates(set))
			return nil
		},
	}

	return cmd
}

// renderTraitTable renders the trait listing as a bordered table.
func renderTraitTable(set *docset.Set) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := [][]string{}
	for _, trait := range set.Traits() {
		tbl, _ := set.Table(trait)
		rows = append(rows, []string{
			trait,
			fmt.Sprintf("%d", tbl.Len()),
			fmt.Sprintf("%d", tbl.RecordCount()),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Trait", "Crates", "Records").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleValue
			}
			return StyleDim
		})

	return t.Render()
}
