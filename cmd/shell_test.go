package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-catalog/library"
)

func newManager(t *testing.T) *library.LibraryManager {
	t.Helper()
	mgr, err := library.NewLibraryManager(filepath.Join(t.TempDir(), "lib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func runScript(t *testing.T, mgr *library.LibraryManager, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, runShell(context.Background(), mgr, in, &out, false))
	return out.String()
}

func TestShellAddAndBorrow(t *testing.T) {
	mgr := newManager(t)

	out := runScript(t, mgr,
		"add book", "Dune", "Frank Herbert", "9780441013593", "2",
		"list books",
		"borrow", "123456", "1",
		"borrow", "123456", "1",
		"status", "123456",
		"exit",
	)

	assert.Contains(t, out, `Book "Dune" has been successfully added to the catalog. Book ID 1.`)
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, `Successfully borrowed "Dune". Due date:`)
	assert.Contains(t, out, "You have already borrowed this book.")
	assert.Contains(t, out, "Books borrowed: 1")
	assert.Contains(t, out, "Goodbye!")
	assert.NotContains(t, out, "> ", "no prompts without a terminal")
}

func TestShellReturnAndFee(t *testing.T) {
	mgr := newManager(t)

	out := runScript(t, mgr,
		"seed",
		"late fee", "123456", "3",
		"return", "123456", "3",
		"return", "123456", "3",
	)

	assert.Contains(t, out, "Seeded 3 books.")
	assert.Contains(t, out, "Late fee: $0.00 (0 days overdue)")
	assert.Contains(t, out, `Successfully returned "1984".`)
	assert.Contains(t, out, "Book not borrowed by this patron.")
}

func TestShellInvalidInput(t *testing.T) {
	mgr := newManager(t)

	out := runScript(t, mgr,
		"add book", "Dune", "Frank Herbert", "9780441013593", "many",
		"borrow", "12345", "1",
		"borrow", "123456", "abc",
		"search book", "", "title",
		"dance",
	)

	assert.Contains(t, out, "Invalid number of copies: many")
	assert.Contains(t, out, "Invalid patron ID. Must be exactly 6 digits.")
	assert.Contains(t, out, "Invalid book ID. Must be a positive integer.")
	assert.Contains(t, out, "No books found.")
	assert.Contains(t, out, "Unknown command.")
}

func TestShellKeepsPatronIDWhitespace(t *testing.T) {
	mgr := newManager(t)

	out := runScript(t, mgr,
		"add book", "Dune", "Frank Herbert", "9780441013593", "2",
		"borrow", " 123456 ", "1",
		"status", "123456 ",
		"  borrow  ", "123456", " 1 ",
	)

	assert.Equal(t, 2, strings.Count(out, "Invalid patron ID. Must be exactly 6 digits."))
	assert.Contains(t, out, `Successfully borrowed "Dune".`)
}

func TestShellStopsAtEOF(t *testing.T) {
	mgr := newManager(t)

	// Input ends halfway through a borrow.
	out := runScript(t, mgr, "borrow", "123456")
	assert.NotContains(t, out, "Error")
}

func TestShellCancelledContext(t *testing.T) {
	mgr := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, runShell(ctx, mgr, strings.NewReader("seed\n"), &out, false))
	assert.Empty(t, out.String())
}

func TestParseBookID(t *testing.T) {
	assert.Equal(t, int64(42), parseBookID("42"))
	assert.Equal(t, int64(-1), parseBookID("-1"))
	assert.Equal(t, int64(0), parseBookID("4x"))
	assert.Equal(t, int64(0), parseBookID(""))
}
