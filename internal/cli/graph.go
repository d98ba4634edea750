package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/render/nodelink"
)

type graphOpts struct {
	output   string
	format   string
	bots     bool
	detailed bool
}

// graphCommand creates the contributor graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph PAGE_ID",
		Short: "Render a page's contributors as a node-link diagram",
		Example: `  pathwiki graph 554 -o wp554.svg
  pathwiki graph 554 --format dot | dot -Tpng > wp554.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := errors.ParsePageID(args[0])
			if err != nil {
				return err
			}
			return c.runGraph(cmd.Context(), cmd.OutOrStdout(), id, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "svg", "output format: svg, dot")
	cmd.Flags().BoolVar(&opts.bots, "bots", false, "include bot accounts")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label editors with edit counts and first-edit dates")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, stdout io.Writer, pageID int64, opts graphOpts) error {
	if opts.format != "svg" && opts.format != "dot" {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown graph format %q", opts.format)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	list, err := newAggregator(store, cfg, loggerFromContext(ctx)).Compute(ctx, pageID, 0, opts.bots)
	if err != nil {
		return err
	}

	data := []byte(nodelink.ToDOT(pageLabel(pageID), list, nodelink.Options{Detailed: opts.detailed}))
	if opts.format == "svg" {
		if data, err = nodelink.RenderSVGContext(ctx, string(data)); err != nil {
			return err
		}
	}

	if opts.output == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printSuccess("Rendered %d contributors", len(list))
	printFile(opts.output)
	return nil
}
