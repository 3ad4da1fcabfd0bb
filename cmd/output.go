package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"library-catalog/library"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output %q, want text, json or yaml", format)
}

// render writes v as JSON or YAML, or calls text for the human format.
func render(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case outputJSON:
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func printBooks(w io.Writer, books []*library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	fmt.Fprintln(w, library.BookTableHeader())
	for _, b := range books {
		fmt.Fprintln(w, library.PrettyBook(b))
	}
}

func printFee(w io.Writer, res library.FeeResult) {
	if !res.OK() {
		fmt.Fprintln(w, "Error:", res.Message)
		return
	}
	fmt.Fprintf(w, "Late fee: $%s (%d days overdue)\n", res.FeeAmount, res.DaysOverdue)
}

func printStatus(w io.Writer, rep library.StatusReport) {
	if rep.Status != library.StatusSuccess {
		fmt.Fprintln(w, "Error:", rep.Message)
		return
	}
	fmt.Fprintf(w, "Patron %s\n", rep.PatronID)
	fmt.Fprintf(w, "Books borrowed: %d\n", rep.NumberOfBooksBorrowed)
	fmt.Fprintf(w, "Late fees owed: $%s\n", rep.TotalLateFeesOwed)

	if len(rep.CurrentlyBorrowed) > 0 {
		fmt.Fprintln(w, "\nCurrently borrowed:")
		fmt.Fprintf(w, "%-5s %-30s %-12s %-8s %s\n", "ID", "Title", "Due", "Overdue", "Fee")
		fmt.Fprintln(w, strings.Repeat("-", 66))
		for _, b := range rep.CurrentlyBorrowed {
			overdue := "no"
			if b.IsOverdue {
				overdue = fmt.Sprintf("%dd", b.DaysOverdue)
			}
			fmt.Fprintf(w, "%-5d %-30s %-12s %-8s $%s\n", b.BookID, b.Title, b.DueDate.Format(time.DateOnly), overdue, b.LateFee)
		}
	}

	if len(rep.BorrowingHistory) > 0 {
		fmt.Fprintln(w, "\nHistory:")
		for _, h := range rep.BorrowingHistory {
			state := "open"
			if h.ReturnDate != nil {
				state = "returned " + h.ReturnDate.Format(time.DateOnly)
			}
			fmt.Fprintf(w, "  %s  %-30s %s\n", h.BorrowDate.Format(time.DateOnly), h.Title, state)
		}
	}
}
