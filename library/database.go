package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// Database is the SQLite backend. Every transaction is opened with
// BEGIN IMMEDIATE, so borrow and return take the write lock before their
// first read and concurrent writers queue behind busy_timeout.
type Database struct {
	sqliteAccessor
	db *sqlx.DB

	addBookStmt *sqlx.Stmt
}

var _ Backend = (*Database)(nil)

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{sqliteAccessor: sqliteAccessor{q: db}, db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL lets status reads proceed while a borrow holds the write lock.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            isbn TEXT NOT NULL UNIQUE,
            total_copies INTEGER NOT NULL CHECK (total_copies > 0),
            available_copies INTEGER NOT NULL CHECK (available_copies BETWEEN 0 AND total_copies)
        );`,
		`CREATE TABLE IF NOT EXISTS borrow_records (
            id TEXT PRIMARY KEY,
            patron_id TEXT NOT NULL,
            book_id INTEGER NOT NULL REFERENCES books(id),
            borrow_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrow_records_patron ON borrow_records(patron_id);`,
		// At most one open loan per (patron, book).
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_borrow_records_open
            ON borrow_records(patron_id, book_id) WHERE return_date IS NULL;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Preparex(`INSERT INTO books(title,author,isbn,total_copies,available_copies) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// WithinTx runs fn inside one SQLite transaction.
func (d *Database) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(sqliteTx{sqliteAccessor{q: tx}}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type sqliteTx struct {
	sqliteAccessor
}

// LockPatron is a no-op: the immediate transaction already holds the
// database-wide write lock.
func (sqliteTx) LockPatron(context.Context, string) error { return nil }

// ---------------------------------------------------------------------------
// Catalog helpers
// ---------------------------------------------------------------------------

const bookColumns = `id,title,author,isbn,total_copies,available_copies`

// AddBook inserts a validated book and returns its id.
func (d *Database) AddBook(ctx context.Context, b *Book) (int64, error) {
	res, err := d.addBookStmt.ExecContext(ctx, b.Title, b.Author, b.ISBN, b.TotalCopies, b.AvailableCopies)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrDuplicateISBN
		}
		return 0, err
	}
	return res.LastInsertId()
}

// ListBooks returns the whole catalog ordered by title.
func (d *Database) ListBooks(ctx context.Context) ([]*Book, error) {
	books := []*Book{}
	if err := d.db.SelectContext(ctx, &books, `SELECT `+bookColumns+` FROM books ORDER BY title, id`); err != nil {
		return nil, err
	}
	return books, nil
}

// SearchBooks matches title or author by case-insensitive substring and ISBN
// exactly.
func (d *Database) SearchBooks(ctx context.Context, field SearchField, term string) ([]*Book, error) {
	var (
		where string
		arg   string
	)
	switch field {
	case SearchByISBN:
		where, arg = `isbn = ?`, term
	case SearchByAuthor:
		where, arg = `author LIKE ? ESCAPE '\'`, "%"+escapeLike(term)+"%"
	default:
		where, arg = `title LIKE ? ESCAPE '\'`, "%"+escapeLike(term)+"%"
	}

	books := []*Book{}
	if err := d.db.SelectContext(ctx, &books, `SELECT `+bookColumns+` FROM books WHERE `+where+` ORDER BY title, id`, arg); err != nil {
		return nil, err
	}
	return books, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// ---------------------------------------------------------------------------
// Accessor shared by the DB and its transactions
// ---------------------------------------------------------------------------

type sqliteAccessor struct {
	q sqlx.ExtContext
}

func (a sqliteAccessor) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := sqlx.GetContext(ctx, a.q, &b, `SELECT `+bookColumns+` FROM books WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (a sqliteAccessor) UpdateAvailableCopies(ctx context.Context, id int64, available int) error {
	if available < 0 {
		return ErrCopiesOutOfRange
	}
	res, err := a.q.ExecContext(ctx, `UPDATE books SET available_copies=? WHERE id=? AND total_copies >= ?`, available, id, available)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := a.GetBook(ctx, id); err != nil {
		return err
	}
	return ErrCopiesOutOfRange
}

func (a sqliteAccessor) CreateRecord(ctx context.Context, patronID string, bookID int64, borrowDate, dueDate time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := a.q.ExecContext(ctx,
		`INSERT INTO borrow_records(id,patron_id,book_id,borrow_date,due_date) VALUES(?,?,?,?,?)`,
		id, patronID, bookID, borrowDate.UTC(), dueDate.UTC())
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

const recordColumns = `id,patron_id,book_id,borrow_date,due_date,return_date`

func (a sqliteAccessor) FindOpenRecord(ctx context.Context, patronID string, bookID int64) (*BorrowRecord, error) {
	var r BorrowRecord
	err := sqlx.GetContext(ctx, a.q, &r,
		`SELECT `+recordColumns+` FROM borrow_records WHERE patron_id=? AND book_id=? AND return_date IS NULL`,
		patronID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (a sqliteAccessor) CountOpenRecords(ctx context.Context, patronID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, a.q, &n, `SELECT COUNT(*) FROM borrow_records WHERE patron_id=? AND return_date IS NULL`, patronID)
	return n, err
}

func (a sqliteAccessor) SetReturnDate(ctx context.Context, recordID uuid.UUID, date time.Time) error {
	res, err := a.q.ExecContext(ctx, `UPDATE borrow_records SET return_date=? WHERE id=? AND return_date IS NULL`, date.UTC(), recordID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (a sqliteAccessor) ListRecords(ctx context.Context, patronID string) ([]*BorrowRecord, error) {
	records := []*BorrowRecord{}
	err := sqlx.SelectContext(ctx, a.q, &records,
		`SELECT `+recordColumns+` FROM borrow_records WHERE patron_id=? ORDER BY borrow_date, id`, patronID)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Ping reports whether the database file is reachable.
func (d *Database) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }
