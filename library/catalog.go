package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Catalog validates insertions and runs listing and search over an Inventory.
type Catalog struct {
	inv    Inventory
	logger Logger
}

// NewCatalog wraps inv.
func NewCatalog(inv Inventory, opts ...Option) *Catalog {
	o := buildOptions(opts)
	return &Catalog{inv: inv, logger: o.logger}
}

// AddBook validates nb and inserts it with every copy available.
func (c *Catalog) AddBook(ctx context.Context, nb NewBook) (AddBookResult, error) {
	b, err := ValidateNewBook(nb)
	var failure *Failure
	if errors.As(err, &failure) {
		return AddBookResult{Message: failure.Message, Kind: failure.Kind}, nil
	}

	id, err := c.inv.AddBook(ctx, b)
	if errors.Is(err, ErrDuplicateISBN) {
		return AddBookResult{Message: ErrISBNExists.Message, Kind: ErrISBNExists.Kind}, nil
	}
	if err != nil {
		return AddBookResult{}, storeUnavailable(err)
	}

	c.logger.Info("book added", "book_id", id, "isbn", b.ISBN, "copies", b.TotalCopies)
	return AddBookResult{
		Success: true,
		Message: fmt.Sprintf("Book %q has been successfully added to the catalog.", b.Title),
		BookID:  id,
	}, nil
}

// ListBooks returns every book sorted by title.
func (c *Catalog) ListBooks(ctx context.Context) ([]*Book, error) {
	books, err := c.inv.ListBooks(ctx)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return books, nil
}

// ParseSearchField maps a user-supplied search type to a field. Matching is
// case-insensitive and anything unrecognised searches titles.
func ParseSearchField(s string) SearchField {
	switch f := SearchField(strings.ToLower(strings.TrimSpace(s))); f {
	case SearchByAuthor, SearchByISBN:
		return f
	}
	return SearchByTitle
}

// SearchBooks finds books by partial title or author, or by exact ISBN.
// A blank term matches nothing.
func (c *Catalog) SearchBooks(ctx context.Context, term, searchType string) ([]*Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*Book{}, nil
	}
	books, err := c.inv.SearchBooks(ctx, ParseSearchField(searchType), term)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return books, nil
}
