package library

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CatalogAccessor reads books and adjusts their available copies.
// GetBook returns ErrNotFound when the id is unknown.
type CatalogAccessor interface {
	GetBook(ctx context.Context, id int64) (*Book, error)
	UpdateAvailableCopies(ctx context.Context, id int64, available int) error
}

// RecordStore persists borrow records. FindOpenRecord returns ErrNotFound
// when the patron holds no open loan of the book.
type RecordStore interface {
	CreateRecord(ctx context.Context, patronID string, bookID int64, borrowDate, dueDate time.Time) (uuid.UUID, error)
	FindOpenRecord(ctx context.Context, patronID string, bookID int64) (*BorrowRecord, error)
	CountOpenRecords(ctx context.Context, patronID string) (int, error)
	SetReturnDate(ctx context.Context, recordID uuid.UUID, date time.Time) error
	ListRecords(ctx context.Context, patronID string) ([]*BorrowRecord, error)
}

// Accessor is the read/write surface shared by a store and its transactions.
type Accessor interface {
	CatalogAccessor
	RecordStore
}

// Tx is an Accessor bound to one atomic unit of work.
type Tx interface {
	Accessor

	// LockPatron serialises concurrent transactions for the same patron so the
	// open-loan count read inside the transaction stays valid until commit.
	LockPatron(ctx context.Context, patronID string) error
}

// Store is what the lifecycle engine needs: plain reads plus transactions.
// WithinTx commits when fn returns nil and rolls back otherwise, returning
// fn's error unchanged.
type Store interface {
	Accessor
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// SearchField selects the column a catalog search matches against.
type SearchField string

const (
	SearchByTitle  SearchField = "title"
	SearchByAuthor SearchField = "author"
	SearchByISBN   SearchField = "isbn"
)

// Inventory is the plain data-access side of the catalog: insertion, listing
// and search. Listing and search results are sorted by title.
type Inventory interface {
	AddBook(ctx context.Context, b *Book) (int64, error)
	ListBooks(ctx context.Context) ([]*Book, error)
	SearchBooks(ctx context.Context, field SearchField, term string) ([]*Book, error)
}

// Backend is a complete storage implementation.
type Backend interface {
	Store
	Inventory
	Close() error
}
