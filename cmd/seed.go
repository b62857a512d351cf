package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tankyu/diary/internal/catalog"
	"github.com/tankyu/diary/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default competencies and research phases",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		return seedCatalog(cmd.Context(), st, cmd.OutOrStdout())
	},
}

// seedCatalog inserts whatever part of the default catalog is missing.
func seedCatalog(ctx context.Context, st *store.Store, out io.Writer) error {
	var comps, phases int
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		if comps, err = tx.Catalog().SeedCompetencies(ctx, catalog.SeedCompetencies()); err != nil {
			return fmt.Errorf("seed competencies: %w", err)
		}
		if phases, err = tx.Catalog().SeedPhases(ctx, catalog.SeedPhases()); err != nil {
			return fmt.Errorf("seed phases: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d competencies and %d phases.\n", comps, phases)
	return nil
}
