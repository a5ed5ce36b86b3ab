package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/traitdex/pkg/docset"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "browse [doc-root]",
		Short: "Browse traits and their implementors interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				root = args[0]
			}
			set, _, err := c.scanDocset(cmd.Context(), root, "")
			if err != nil {
				return err
			}
			if set.Len() == 0 {
				printInfo("Nothing to browse, the docset has no implementor fragments")
				return nil
			}

			model := NewTraitBrowserModel(set)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	return cmd
}

// =============================================================================
// TraitBrowserModel - Interactive trait browsing
// =============================================================================

// TraitBrowserModel is the bubbletea model for browsing a scanned docset.
// It has two levels: the trait list and a per-trait implementor view.
type TraitBrowserModel struct {
	Set    *docset.Set
	Traits []string
	Cursor int
	Height int
	Offset int

	// Detail is the trait currently opened, empty for the list view.
	Detail string
}

// NewTraitBrowserModel creates a browser over a scanned set.
func NewTraitBrowserModel(set *docset.Set) TraitBrowserModel {
	return TraitBrowserModel{
		Set:    set,
		Traits: set.Traits(),
		Height: 15,
	}
}

func (m TraitBrowserModel) Init() tea.Cmd {
	return nil
}

func (m TraitBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Detail != "" {
				m.Detail = ""
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.Detail == "" && m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Detail == "" && m.Cursor < len(m.Traits)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if m.Detail == "" {
				m.Detail = m.Traits[m.Cursor]
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m TraitBrowserModel) View() string {
	if m.Detail != "" {
		return m.detailView()
	}
	return m.listView()
}

func (m TraitBrowserModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Traits"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Traits) {
		end = len(m.Traits)
	}

	for i := m.Offset; i < end; i++ {
		trait := m.Traits[i]
		tbl, _ := m.Set.Table(trait)

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-40s  %s", cursor, trait,
			listDimStyle.Render(fmt.Sprintf("%d crates, %d records", tbl.Len(), tbl.RecordCount())))

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Traits))))

	return b.String()
}

func (m TraitBrowserModel) detailView() string {
	var b strings.Builder

	tbl, _ := m.Set.Table(m.Detail)

	b.WriteString(StyleTitle.Render(m.Detail))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := [][]string{}
	for _, crate := range tbl.Keys() {
		records, _ := tbl.Get(crate)
		for _, rec := range records {
			kind := "impl"
			if rec.Synthetic {
				kind = "auto"
			}
			rows = append(rows, []string{crate, kind, strings.Join(rec.Types, ", ")})
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Crate", "Kind", "Types").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 && row < len(rows) && rows[row][1] == "auto" {
				return StyleWarning
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}
