package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load sample books into an empty catalog",
		Long: `seed adds The Great Gatsby, To Kill a Mockingbird and 1984 to an empty
catalog and lends the only copy of 1984 to patron ` + library.SamplePatronID + `.
A catalog that already holds books is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				rep, err := mgr.SeedSampleData(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, rep, func(w io.Writer) {
					if rep.Skipped {
						fmt.Fprintf(w, "Catalog already has %d books, nothing seeded.\n", len(rep.Books))
						return
					}
					fmt.Fprintf(w, "Seeded %d books.\n", len(rep.Books))
					for _, msg := range rep.Loans {
						fmt.Fprintf(w, "Patron %s: %s\n", library.SamplePatronID, msg)
					}
					fmt.Fprintln(w)
					printBooks(w, rep.Books)
				})
			})
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a backend applies its migrations.
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				if err := mgr.Ping(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s).\n", a.cfg.Driver)
				return nil
			})
		},
	}
}
