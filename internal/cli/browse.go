package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/server"
	"github.com/matzehuels/pathwiki/pkg/widget"
)

var (
	browseErrorStyle = lipgloss.NewStyle().Foreground(colorRed).Border(lipgloss.RoundedBorder()).BorderForeground(colorRed).Padding(0, 1)
	browseLineStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	browseMoreStyle  = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
)

type browseOpts struct {
	sourceOpts
	limit int
	bots  bool
}

// browseCommand creates the interactive author browser.
func (c *CLI) browseCommand() *cobra.Command {
	var opts browseOpts

	cmd := &cobra.Command{
		Use:   "browse PAGE_ID",
		Short: "Browse a page's authors interactively",
		Long: `Show a page's author line the way the page widget does, with the
"et al." expansion and the error overlay driven from the keyboard.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := errors.ParsePageID(args[0])
			if err != nil {
				return err
			}
			fetcher, closeFn, err := c.openFetcher(cmd.Context(), opts.sourceOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			w, err := widget.Mount(widget.NewHost(id, opts.limit, opts.bots), fetcher, widget.Options{Logger: c.Logger})
			if err != nil {
				return err
			}
			p := tea.NewProgram(newBrowseModel(cmd.Context(), w), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	opts.register(cmd)
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", server.DefaultPageLimit, "authors to show before \"et al.\" (0 for all)")
	cmd.Flags().BoolVar(&opts.bots, "bots", false, "include bot accounts")

	return cmd
}

// =============================================================================
// browseModel - bubbletea model over a mounted widget
// =============================================================================

// loadDoneMsg reports the end of a widget load.
type loadDoneMsg struct{ err error }

type browseModel struct {
	ctx     context.Context
	w       *widget.Widget
	snap    widget.Snapshot
	loading bool
}

func newBrowseModel(ctx context.Context, w *widget.Widget) browseModel {
	return browseModel{ctx: ctx, w: w, snap: w.Snapshot(), loading: true}
}

func (m browseModel) load(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: fn(m.ctx)}
	}
}

func (m browseModel) Init() tea.Cmd {
	return m.load(m.w.Init)
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg:
		if stderrors.Is(msg.err, widget.ErrStale) {
			return m, nil
		}
		m.loading = false
		m.snap = m.w.Snapshot()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "a":
			if m.snap.Truncated {
				m.loading = true
				return m, m.load(func(ctx context.Context) error {
					return m.w.Click(ctx, widget.ActionShowAll)
				})
			}
		case "c":
			if m.snap.Error != "" {
				_ = m.w.Click(m.ctx, widget.ActionClose)
				m.snap = m.w.Snapshot()
			}
		case "r":
			m.loading = true
			return m, m.load(m.w.Init)
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Authors of " + pageLabel(m.snap.PageID)))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(StyleDim.Render("loading…"))
	case len(m.snap.Entries) == 0 && !m.snap.Truncated:
		b.WriteString(StyleDim.Render("no authors"))
	default:
		line := authorsLine(m.snap)
		b.WriteString(line)
	}
	b.WriteString("\n")

	if m.snap.Error != "" {
		b.WriteString("\n")
		b.WriteString(browseErrorStyle.Render(m.snap.Error))
		b.WriteString("\n")
	}

	if len(m.snap.Entries) > 0 && !m.loading {
		b.WriteString("\n")
		b.WriteString(authorsTable(m.snap.Entries))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(m.help()))
	return b.String()
}

// authorsLine renders the widget line with "et al." styled as a link.
func authorsLine(s widget.Snapshot) string {
	names := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		names[i] = browseLineStyle.Render(e.Name)
	}
	if s.Truncated {
		names = append(names, browseMoreStyle.Render("et al."))
	}
	return strings.Join(names, ", ")
}

func (m browseModel) help() string {
	keys := []string{}
	if m.snap.Truncated {
		keys = append(keys, "a show all")
	}
	if m.snap.Error != "" {
		keys = append(keys, "c close error")
	}
	keys = append(keys, "r reload", "q quit")
	return fmt.Sprintf("  %s", strings.Join(keys, "  "))
}
