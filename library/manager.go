package library

import (
	"context"
	"fmt"
	"strings"
)

// LibraryManager is a thin façade over a Backend, keeping CLI and HTTP code
// simple. It owns the backend and closes it.
type LibraryManager struct {
	backend Backend
	catalog *Catalog
	engine  *Engine
	status  *StatusAggregator
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string, opts ...Option) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return NewManager(db, opts...), nil
}

// NewManager wires the catalog, engine and status aggregator over backend.
func NewManager(backend Backend, opts ...Option) *LibraryManager {
	engine := NewEngine(backend, opts...)
	return &LibraryManager{
		backend: backend,
		catalog: NewCatalog(backend, opts...),
		engine:  engine,
		status:  NewStatusAggregator(engine, backend, opts...),
	}
}

// Close closes the underlying backend.
func (lm *LibraryManager) Close() error { return lm.backend.Close() }

// Ping checks the backend when it supports health checks.
func (lm *LibraryManager) Ping(ctx context.Context) error {
	if p, ok := lm.backend.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Policy returns the loan policy in force.
func (lm *LibraryManager) Policy() Policy { return lm.engine.Policy() }

// ------------------ Catalog ------------------

func (lm *LibraryManager) AddBook(ctx context.Context, nb NewBook) (AddBookResult, error) {
	return lm.catalog.AddBook(ctx, nb)
}

func (lm *LibraryManager) ListBooks(ctx context.Context) ([]*Book, error) {
	return lm.catalog.ListBooks(ctx)
}

func (lm *LibraryManager) SearchBooks(ctx context.Context, term, searchType string) ([]*Book, error) {
	return lm.catalog.SearchBooks(ctx, term, searchType)
}

// ------------------ Circulation ------------------

func (lm *LibraryManager) Borrow(ctx context.Context, patronID string, bookID int64) (BorrowResult, error) {
	return lm.engine.Borrow(ctx, patronID, bookID)
}

func (lm *LibraryManager) Return(ctx context.Context, patronID string, bookID int64) (ReturnResult, error) {
	return lm.engine.Return(ctx, patronID, bookID)
}

func (lm *LibraryManager) CalculateLateFee(ctx context.Context, patronID string, bookID int64) (FeeResult, error) {
	return lm.engine.CalculateLateFee(ctx, patronID, bookID)
}

func (lm *LibraryManager) PatronStatus(ctx context.Context, patronID string) (StatusReport, error) {
	return lm.status.PatronStatus(ctx, patronID)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	avail := fmt.Sprintf("%d/%d", b.AvailableCopies, b.TotalCopies)
	return fmt.Sprintf("%-5d %-30s %-25s %-13s %-7s", b.ID, truncate(b.Title, 30), truncate(b.Author, 25), b.ISBN, avail)
}

// BookTableHeader matches the PrettyBook columns.
func BookTableHeader() string {
	return fmt.Sprintf("%-5s %-30s %-25s %-13s %-7s\n%s", "ID", "Title", "Author", "ISBN", "Avail", strings.Repeat("-", 84))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
