package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

func newAddBookCmd(a *app) *cobra.Command {
	var nb library.NewBook

	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Add a book to the catalog",
		Example: `  library add-book --title "Dune" --author "Frank Herbert" --isbn 9780441013593 --copies 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				res, err := mgr.AddBook(cmd.Context(), nb)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, res, func(w io.Writer) {
					fmt.Fprintln(w, res.Message)
				})
			})
		},
	}

	cmd.Flags().StringVar(&nb.Title, "title", "", "Book title")
	cmd.Flags().StringVar(&nb.Author, "author", "", "Book author")
	cmd.Flags().StringVar(&nb.ISBN, "isbn", "", "13 digit ISBN")
	cmd.Flags().IntVar(&nb.TotalCopies, "copies", 1, "Number of copies")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book, sorted by title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				books, err := mgr.ListBooks(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, books, func(w io.Writer) { printBooks(w, books) })
			})
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var searchType string

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search by title, author or ISBN",
		Example: `  library search gatsby
  library search orwell --type author
  library search 9780451524935 --type isbn`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				books, err := mgr.SearchBooks(cmd.Context(), args[0], searchType)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, books, func(w io.Writer) { printBooks(w, books) })
			})
		},
	}

	cmd.Flags().StringVarP(&searchType, "type", "t", "title", "Search field: title, author or isbn")
	return cmd
}
