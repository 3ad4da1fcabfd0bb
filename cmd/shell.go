package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-catalog/library"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt for catalog and loan commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				interactive := term.IsTerminal(int(os.Stdin.Fd()))
				return runShell(cmd.Context(), mgr, cmd.InOrStdin(), cmd.OutOrStdout(), interactive)
			})
		},
	}
}

// shell reads one command per line and prompts for its fields on the
// following lines. Prompts are only printed when attached to a terminal.
type shell struct {
	ctx         context.Context
	mgr         *library.LibraryManager
	sc          *bufio.Scanner
	out         io.Writer
	interactive bool
}

func runShell(ctx context.Context, mgr *library.LibraryManager, in io.Reader, out io.Writer, interactive bool) error {
	s := &shell{ctx: ctx, mgr: mgr, sc: bufio.NewScanner(in), out: out, interactive: interactive}

	if interactive {
		fmt.Fprintln(out, "Welcome to the Library Catalog!")
		fmt.Fprintln(out, "Available commands:")
		fmt.Fprintln(out, "  Books: add book, list books, search book")
		fmt.Fprintln(out, "  Loans: borrow, return, late fee, status")
		fmt.Fprintln(out, "  System: seed, exit")
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		s.prompt("\n> ")
		if !s.sc.Scan() {
			return s.sc.Err()
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(s.sc.Text())) {
		case "":
			continue
		case "add book":
			err = s.addBook()
		case "list books":
			err = s.listBooks()
		case "search book":
			err = s.searchBooks()
		case "borrow":
			err = s.borrow()
		case "return":
			err = s.giveBack()
		case "late fee":
			err = s.lateFee()
		case "status":
			err = s.status()
		case "seed":
			err = s.seed()
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(out, "Unknown command. Type one of the available commands listed above.")
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func (s *shell) prompt(p string) {
	if s.interactive {
		fmt.Fprint(s.out, p)
	}
}

// ask returns the next trimmed line, or false when input ends.
func (s *shell) ask(label string) (string, bool) {
	line, ok := s.askRaw(label)
	return strings.TrimSpace(line), ok
}

// askRaw returns the next line as typed. Patron ids go through untrimmed so
// that surrounding whitespace is rejected by validation.
func (s *shell) askRaw(label string) (string, bool) {
	s.prompt(label + ": ")
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSuffix(s.sc.Text(), "\r"), true
}

func (s *shell) loanArgs() (string, int64, bool) {
	patronID, ok := s.askRaw("Patron ID")
	if !ok {
		return "", 0, false
	}
	bookID, ok := s.ask("Book ID")
	if !ok {
		return "", 0, false
	}
	return patronID, parseBookID(bookID), true
}

func (s *shell) addBook() error {
	var nb library.NewBook
	var ok bool
	if nb.Title, ok = s.ask("Title"); !ok {
		return nil
	}
	if nb.Author, ok = s.ask("Author"); !ok {
		return nil
	}
	if nb.ISBN, ok = s.ask("ISBN"); !ok {
		return nil
	}
	copies, ok := s.ask("Copies")
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(copies)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid number of copies: %s\n", copies)
		return nil
	}
	nb.TotalCopies = n

	res, err := s.mgr.AddBook(s.ctx, nb)
	if err != nil {
		return err
	}
	if res.Success {
		fmt.Fprintf(s.out, "%s Book ID %d.\n", res.Message, res.BookID)
		return nil
	}
	fmt.Fprintln(s.out, res.Message)
	return nil
}

func (s *shell) listBooks() error {
	books, err := s.mgr.ListBooks(s.ctx)
	if err != nil {
		return err
	}
	printBooks(s.out, books)
	return nil
}

func (s *shell) searchBooks() error {
	query, ok := s.ask("Query")
	if !ok {
		return nil
	}
	field, ok := s.ask("Search by (title, author, isbn)")
	if !ok {
		return nil
	}
	books, err := s.mgr.SearchBooks(s.ctx, query, field)
	if err != nil {
		return err
	}
	if len(books) > 0 {
		fmt.Fprintf(s.out, "Found %d book(s) matching '%s':\n", len(books), query)
	}
	printBooks(s.out, books)
	return nil
}

func (s *shell) borrow() error {
	patronID, bookID, ok := s.loanArgs()
	if !ok {
		return nil
	}
	res, err := s.mgr.Borrow(s.ctx, patronID, bookID)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, res.Message)
	return nil
}

func (s *shell) giveBack() error {
	patronID, bookID, ok := s.loanArgs()
	if !ok {
		return nil
	}
	res, err := s.mgr.Return(s.ctx, patronID, bookID)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, res.Message)
	return nil
}

func (s *shell) lateFee() error {
	patronID, bookID, ok := s.loanArgs()
	if !ok {
		return nil
	}
	res, err := s.mgr.CalculateLateFee(s.ctx, patronID, bookID)
	if err != nil {
		return err
	}
	printFee(s.out, res)
	return nil
}

func (s *shell) status() error {
	patronID, ok := s.askRaw("Patron ID")
	if !ok {
		return nil
	}
	rep, err := s.mgr.PatronStatus(s.ctx, patronID)
	if err != nil {
		return err
	}
	printStatus(s.out, rep)
	return nil
}

func (s *shell) seed() error {
	rep, err := s.mgr.SeedSampleData(s.ctx)
	if err != nil {
		return err
	}
	if rep.Skipped {
		fmt.Fprintln(s.out, "Catalog is not empty, nothing seeded.")
		return nil
	}
	fmt.Fprintf(s.out, "Seeded %d books.\n", len(rep.Books))
	for _, msg := range rep.Loans {
		fmt.Fprintf(s.out, "Patron %s: %s\n", library.SamplePatronID, msg)
	}
	return nil
}
