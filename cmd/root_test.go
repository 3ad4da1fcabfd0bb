package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LIBRARY_DRIVER", "sqlite")
	t.Setenv("LIBRARY_DB_PATH", filepath.Join(t.TempDir(), "lib.db"))
	t.Setenv("LIBRARY_LOG_LEVEL", "error")
	t.Setenv("LIBRARY_POLICY_FILE", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandsAgainstSQLite(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date (sqlite)")

	out, err = execute(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 3 books.")

	out, err = execute(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing seeded")

	out, err = execute(t, "add-book", "--title", "Dune", "--author", "Frank Herbert", "--isbn", "9780441013593", "--copies", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `Book "Dune" has been successfully added to the catalog.`)

	out, err = execute(t, "search", "orwell", "--type", "author")
	require.NoError(t, err)
	assert.Contains(t, out, "1984")
	assert.NotContains(t, out, "Dune")

	out, err = execute(t, "borrow", "123456", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Successfully borrowed "The Great Gatsby".`)

	// Business failures are reported, not returned as errors.
	out, err = execute(t, "borrow", "123456", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "You have already borrowed this book.")

	// The only copy of 1984 is already out, so availability fails first.
	out, err = execute(t, "borrow", "123456", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "This book is currently not available.")

	out, err = execute(t, "return", "123456", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Successfully returned "The Great Gatsby".`)

	out, err = execute(t, "fee", "123456", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Late fee: $0.00")
}

func TestStatusJSON(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "seed")
	require.NoError(t, err)

	out, err := execute(t, "status", "123456", "-o", "json")
	require.NoError(t, err)

	var rep struct {
		Status   string          `json:"status"`
		Borrowed int             `json:"number_of_books_borrowed"`
		FeesOwed jsoniter.Number `json:"total_late_fees_owed"`
		Current  []struct {
			Title string `json:"title"`
		} `json:"currently_borrowed_books"`
	}
	require.NoError(t, jsoniter.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "success", rep.Status)
	assert.Equal(t, 1, rep.Borrowed)
	assert.Equal(t, "0.00", rep.FeesOwed.String())
	require.Len(t, rep.Current, 1)
	assert.Equal(t, "1984", rep.Current[0].Title)
}

func TestListYAML(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "seed")
	require.NoError(t, err)

	out, err := execute(t, "list", "-o", "yaml")
	require.NoError(t, err)

	var books []struct {
		Title           string `yaml:"title"`
		AvailableCopies int    `yaml:"available_copies"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &books))
	require.Len(t, books, 3)
	assert.Equal(t, "1984", books[0].Title)
	assert.Equal(t, 0, books[0].AvailableCopies)
}

func TestRejectsBadConfig(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output")

	t.Setenv("LIBRARY_DRIVER", "mysql")
	_, err = execute(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIBRARY_DRIVER")
}
