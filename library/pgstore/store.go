// Package pgstore is the PostgreSQL backend. Borrow and return transactions
// lock the book row with SELECT ... FOR UPDATE and serialise each patron with
// a transaction-scoped advisory lock.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-catalog/library"
)

// dbtx is implemented by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements library.Backend over a pgx pool.
type Store struct {
	accessor
	pool *pgxpool.Pool
}

var _ library.Backend = (*Store)(nil)

// Connect opens a pool and pings it.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// New wraps an open pool. The Store takes ownership and closes it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{accessor: accessor{q: pool}, pool: pool}
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// WithinTx runs fn in a read-committed transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx library.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(txAccessor{accessor{q: tx, lockRows: true}}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type txAccessor struct {
	accessor
}

func (a txAccessor) LockPatron(ctx context.Context, patronID string) error {
	q, err := lockPatronQuery(patronID)
	if err != nil {
		return err
	}
	if _, err := a.q.Exec(ctx, q.sql, q.args...); err != nil {
		return fmt.Errorf("lock patron: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// AddBook inserts b and returns the generated id.
func (s *Store) AddBook(ctx context.Context, b *library.Book) (int64, error) {
	q, err := insertBookQuery(b)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := s.pool.QueryRow(ctx, q.sql, q.args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, library.ErrDuplicateISBN
		}
		return 0, err
	}
	return id, nil
}

// ListBooks returns every book sorted by title.
func (s *Store) ListBooks(ctx context.Context) ([]*library.Book, error) {
	q, err := listBooksQuery()
	if err != nil {
		return nil, err
	}
	return s.selectBooks(ctx, q)
}

// SearchBooks runs ILIKE for title and author, equality for ISBN.
func (s *Store) SearchBooks(ctx context.Context, field library.SearchField, term string) ([]*library.Book, error) {
	q, err := searchBooksQuery(field, term)
	if err != nil {
		return nil, err
	}
	return s.selectBooks(ctx, q)
}

func (s *Store) selectBooks(ctx context.Context, q query) ([]*library.Book, error) {
	rows, err := s.pool.Query(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	books, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[library.Book])
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []*library.Book{}
	}
	return books, nil
}

// ---------------------------------------------------------------------------
// Accessor shared by the pool and its transactions
// ---------------------------------------------------------------------------

type accessor struct {
	q        dbtx
	lockRows bool
}

func (a accessor) GetBook(ctx context.Context, id int64) (*library.Book, error) {
	q, err := getBookQuery(id, a.lockRows)
	if err != nil {
		return nil, err
	}
	rows, err := a.q.Query(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	b, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[library.Book])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, library.ErrNotFound
	}
	return b, err
}

func (a accessor) UpdateAvailableCopies(ctx context.Context, id int64, available int) error {
	if available < 0 {
		return library.ErrCopiesOutOfRange
	}
	q, err := updateAvailableQuery(id, available)
	if err != nil {
		return err
	}
	tag, err := a.q.Exec(ctx, q.sql, q.args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := a.GetBook(ctx, id); err != nil {
		return err
	}
	return library.ErrCopiesOutOfRange
}

func (a accessor) CreateRecord(ctx context.Context, patronID string, bookID int64, borrowDate, dueDate time.Time) (uuid.UUID, error) {
	id := uuid.New()
	q, err := insertRecordQuery(id, patronID, bookID, borrowDate, dueDate)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := a.q.Exec(ctx, q.sql, q.args...); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (a accessor) FindOpenRecord(ctx context.Context, patronID string, bookID int64) (*library.BorrowRecord, error) {
	q, err := openRecordQuery(patronID, bookID)
	if err != nil {
		return nil, err
	}
	rows, err := a.q.Query(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[library.BorrowRecord])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, library.ErrNotFound
	}
	return r, err
}

func (a accessor) CountOpenRecords(ctx context.Context, patronID string) (int, error) {
	q, err := countOpenQuery(patronID)
	if err != nil {
		return 0, err
	}
	var n int
	err = a.q.QueryRow(ctx, q.sql, q.args...).Scan(&n)
	return n, err
}

func (a accessor) SetReturnDate(ctx context.Context, recordID uuid.UUID, date time.Time) error {
	q, err := setReturnDateQuery(recordID, date)
	if err != nil {
		return err
	}
	tag, err := a.q.Exec(ctx, q.sql, q.args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return library.ErrNotFound
	}
	return nil
}

func (a accessor) ListRecords(ctx context.Context, patronID string) ([]*library.BorrowRecord, error) {
	q, err := listRecordsQuery(patronID)
	if err != nil {
		return nil, err
	}
	rows, err := a.q.Query(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	records, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[library.BorrowRecord])
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*library.BorrowRecord{}
	}
	return records, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
