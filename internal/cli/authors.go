package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/client"
	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/server"
	"github.com/matzehuels/pathwiki/pkg/widget"
)

// Output formats of the authors command.
const (
	formatTable = "table"
	formatText  = authors.FormatText
	formatXML   = authors.FormatXML
	formatJSON  = authors.FormatJSON
)

// maxConcurrentPages bounds parallel fetches in the authors command.
const maxConcurrentPages = 4

// sourceOpts select where author lists come from.
type sourceOpts struct {
	server string
	legacy bool
}

func (o *sourceOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.server, "server", "", "fetch from a pathwiki server at this URL instead of the local store")
	cmd.Flags().BoolVar(&o.legacy, "legacy", false, "use the legacy ajax endpoint (with --server)")
}

type authorsOpts struct {
	sourceOpts
	limit  int
	bots   bool
	format string
}

// authorsCommand creates the authors command.
func (c *CLI) authorsCommand() *cobra.Command {
	var opts authorsOpts

	cmd := &cobra.Command{
		Use:   "authors PAGE_ID...",
		Short: "List the ranked authors of one or more pages",
		Long: `List the ranked authors of pages. The first author is the page's original
author; the rest are ordered by edit count.

Formats:
  text   the widget's author line, "Name, Name, et al."
  table  one row per author with edit counts and profile links
  xml    the fetch endpoint's wire format (single page)
  json   the same as JSON (single page)`,
		Example: `  pathwiki authors 554
  pathwiki authors 554 555 --format table --limit 0
  pathwiki authors 554 --server https://wiki.example.org --format xml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuthors(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", server.DefaultPageLimit, "authors to show before \"et al.\" (0 for all)")
	cmd.Flags().BoolVar(&opts.bots, "bots", false, "include bot accounts")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text, table, xml, json")

	return cmd
}

type pageAuthors struct {
	pageID  int64
	line    string
	entries []authors.Entry
}

func (c *CLI) runAuthors(ctx context.Context, out io.Writer, args []string, opts authorsOpts) error {
	switch opts.format {
	case formatText, formatTable:
	case formatXML, formatJSON:
		if len(args) != 1 {
			return errors.New(errors.ErrCodeInvalidInput, "--format %s takes a single page", opts.format)
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", opts.format)
	}

	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := errors.ParsePageID(a)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	fetcher, closeFn, err := c.openFetcher(ctx, opts.sourceOpts)
	if err != nil {
		return err
	}
	defer closeFn()

	prog := newProgress(loggerFromContext(ctx))
	results := make([]pageAuthors, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPages)
	for i, id := range ids {
		g.Go(func() error {
			r, err := fetchPage(gctx, fetcher, id, opts)
			if err != nil {
				return fmt.Errorf("page %d: %w", id, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Fetched authors of %d page(s)", len(ids)))

	switch opts.format {
	case formatXML, formatJSON:
		return authors.Encode(out, opts.format, listFromEntries(results[0].entries))
	case formatTable:
		for _, r := range results {
			fmt.Fprintln(out, StyleTitle.Render(pageLabel(r.pageID)))
			fmt.Fprintln(out, authorsTable(r.entries))
			if r.line != "" {
				fmt.Fprintln(out, StyleDim.Render("  "+r.line))
			}
		}
		return nil
	default:
		for _, r := range results {
			if len(results) > 1 {
				fmt.Fprintf(out, "%s: %s\n", pageLabel(r.pageID), r.line)
			} else {
				fmt.Fprintln(out, r.line)
			}
		}
		return nil
	}
}

// fetchPage builds the text line through a widget, and fetches the entries
// themselves with the requested limit for the structured formats.
func fetchPage(ctx context.Context, f widget.Fetcher, pageID int64, opts authorsOpts) (pageAuthors, error) {
	r := pageAuthors{pageID: pageID}
	if opts.format == formatText {
		w, err := widget.Mount(widget.NewHost(pageID, opts.limit, opts.bots), f, widget.Options{})
		if err != nil {
			return r, err
		}
		if err := w.Init(ctx); err != nil {
			return r, err
		}
		snap := w.Snapshot()
		r.line, r.entries = snap.Line(), snap.Entries
		return r, nil
	}
	entries, err := f.FetchAuthors(ctx, pageID, opts.limit, opts.bots)
	if err != nil {
		return r, err
	}
	if opts.format == formatTable && opts.limit > 0 && len(entries) > opts.limit {
		entries = entries[:opts.limit]
		r.line = "et al."
	}
	r.entries = entries
	return r, nil
}

// openFetcher returns a remote client when --server is set, otherwise an
// in-process fetcher over the configured store.
func (c *CLI) openFetcher(ctx context.Context, opts sourceOpts) (widget.Fetcher, func(), error) {
	if opts.server != "" {
		if err := errors.ValidateURL(opts.server); err != nil {
			return nil, nil, err
		}
		registerLogHooks(loggerFromContext(ctx))
		var copts []client.Option
		if opts.legacy {
			copts = append(copts, client.WithLegacyEndpoint())
		}
		return client.New(opts.server, copts...), func() {}, nil
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	agg := newAggregator(store, cfg, loggerFromContext(ctx).WithPrefix("authors"))
	return widget.Local{Aggregator: agg}, func() { _ = store.Close() }, nil
}

// listFromEntries rebuilds a List from wire entries for re-encoding.
func listFromEntries(entries []authors.Entry) authors.List {
	l := make(authors.List, len(entries))
	for i, e := range entries {
		l[i] = authors.Editor{DisplayName: e.Name, EditCount: e.EditCount, ProfileURL: e.URL}
	}
	return l
}

func pageLabel(pageID int64) string {
	return "WP" + strconv.FormatInt(pageID, 10)
}

func authorsTable(entries []authors.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		role := ""
		if i == 0 {
			role = "original"
		}
		rows[i] = []string{strconv.Itoa(i + 1), e.Name, strconv.Itoa(e.EditCount), role, e.URL}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Author", "Edits", "", "Profile").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 2:
				return StyleNumber
			case col == 4:
				return StyleDim
			case row == 0 && col == 1:
				return StyleHighlight.Bold(true)
			default:
				return StyleValue
			}
		})
	return t.Render()
}
