package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

// parseBookID maps anything that is not a base-10 integer to 0, which the
// engine rejects as an invalid book id.
func parseBookID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func newBorrowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "borrow <patron-id> <book-id>",
		Short:   "Lend a book to a patron for the loan period",
		Example: `  library borrow 123456 1`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				res, err := mgr.Borrow(cmd.Context(), args[0], parseBookID(args[1]))
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, res, func(w io.Writer) {
					fmt.Fprintln(w, res.Message)
				})
			})
		},
	}
}

func newReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "return <patron-id> <book-id>",
		Short:   "Return a borrowed book",
		Example: `  library return 123456 1`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				res, err := mgr.Return(cmd.Context(), args[0], parseBookID(args[1]))
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, res, func(w io.Writer) {
					fmt.Fprintln(w, res.Message)
				})
			})
		},
	}
}

func newFeeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "fee <patron-id> <book-id>",
		Short:   "Show the current late fee for an open loan",
		Example: `  library fee 123456 1`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				res, err := mgr.CalculateLateFee(cmd.Context(), args[0], parseBookID(args[1]))
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, res, func(w io.Writer) { printFee(w, res) })
			})
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status <patron-id>",
		Short:   "Show a patron's loans, fees owed and history",
		Example: `  library status 123456 -o json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				rep, err := mgr.PatronStatus(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, rep, func(w io.Writer) { printStatus(w, rep) })
			})
		},
	}
}
