package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwiki/pkg/storage"
)

// seedCommand creates the seed command.
func (c *CLI) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed FIXTURE.json",
		Short: "Load pages, users, revisions and diagrams into the store",
		Long: `Import a JSON fixture into the configured store. Rows are upserted by id,
so seeding the same fixture twice leaves the store unchanged.`,
		Example: `  pathwiki seed examples/wikipathways.json
  PATHWIKI_DB=/tmp/wiki.db pathwiki seed examples/wikipathways.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSeed(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runSeed(ctx context.Context, path string) error {
	fixture, err := storage.LoadFixtureFile(path)
	if err != nil {
		return fmt.Errorf("load fixture: %w", err)
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

	prog := newProgress(loggerFromContext(ctx))
	if err := store.Import(ctx, fixture); err != nil {
		return err
	}
	prog.done("Imported fixture")

	printSuccess("Seeded %s store", cfg.Storage.Driver)
	printStats(fixture)
	return nil
}
