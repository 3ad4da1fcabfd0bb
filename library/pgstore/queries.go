package pgstore

import (
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"library-catalog/library"
)

const (
	dialectPostgres = "postgres"

	tableBooks   = "books"
	tableRecords = "borrow_records"

	colID              = "id"
	colTitle           = "title"
	colAuthor          = "author"
	colISBN            = "isbn"
	colTotalCopies     = "total_copies"
	colAvailableCopies = "available_copies"

	colPatronID   = "patron_id"
	colBookID     = "book_id"
	colBorrowDate = "borrow_date"
	colDueDate    = "due_date"
	colReturnDate = "return_date"
)

var (
	builder = goqu.Dialect(dialectPostgres)

	bookColumns   = []any{colID, colTitle, colAuthor, colISBN, colTotalCopies, colAvailableCopies}
	recordColumns = []any{colID, colPatronID, colBookID, colBorrowDate, colDueDate, colReturnDate}
)

// query is a built statement with its positional arguments.
type query struct {
	sql  string
	args []any
}

type toSQLer interface {
	ToSQL() (string, []any, error)
}

func build(ds toSQLer) (query, error) {
	sql, args, err := ds.ToSQL()
	if err != nil {
		return query{}, err
	}
	return query{sql: sql, args: args}, nil
}

func getBookQuery(id int64, lock bool) (query, error) {
	ds := builder.From(tableBooks).Prepared(true).
		Select(bookColumns...).
		Where(goqu.C(colID).Eq(id))
	if lock {
		ds = ds.ForUpdate(exp.Wait)
	}
	return build(ds)
}

func updateAvailableQuery(id int64, available int) (query, error) {
	return build(builder.Update(tableBooks).Prepared(true).
		Set(goqu.Record{colAvailableCopies: available}).
		Where(goqu.C(colID).Eq(id), goqu.C(colTotalCopies).Gte(available)))
}

func insertBookQuery(b *library.Book) (query, error) {
	return build(builder.Insert(tableBooks).Prepared(true).
		Rows(goqu.Record{
			colTitle:           b.Title,
			colAuthor:          b.Author,
			colISBN:            b.ISBN,
			colTotalCopies:     b.TotalCopies,
			colAvailableCopies: b.AvailableCopies,
		}).
		Returning(colID))
}

func listBooksQuery() (query, error) {
	return build(builder.From(tableBooks).Prepared(true).
		Select(bookColumns...).
		Order(goqu.C(colTitle).Asc(), goqu.C(colID).Asc()))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func searchBooksQuery(field library.SearchField, term string) (query, error) {
	var cond exp.Expression
	pattern := "%" + likeEscaper.Replace(term) + "%"
	switch field {
	case library.SearchByISBN:
		cond = goqu.C(colISBN).Eq(term)
	case library.SearchByAuthor:
		cond = goqu.C(colAuthor).ILike(pattern)
	default:
		cond = goqu.C(colTitle).ILike(pattern)
	}
	return build(builder.From(tableBooks).Prepared(true).
		Select(bookColumns...).
		Where(cond).
		Order(goqu.C(colTitle).Asc(), goqu.C(colID).Asc()))
}

func insertRecordQuery(id uuid.UUID, patronID string, bookID int64, borrowDate, dueDate time.Time) (query, error) {
	return build(builder.Insert(tableRecords).Prepared(true).
		Rows(goqu.Record{
			colID:         id.String(),
			colPatronID:   patronID,
			colBookID:     bookID,
			colBorrowDate: borrowDate,
			colDueDate:    dueDate,
		}))
}

func openRecordQuery(patronID string, bookID int64) (query, error) {
	return build(builder.From(tableRecords).Prepared(true).
		Select(recordColumns...).
		Where(
			goqu.C(colPatronID).Eq(patronID),
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colReturnDate).IsNull(),
		))
}

func countOpenQuery(patronID string) (query, error) {
	return build(builder.From(tableRecords).Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colPatronID).Eq(patronID), goqu.C(colReturnDate).IsNull()))
}

func setReturnDateQuery(id uuid.UUID, date time.Time) (query, error) {
	return build(builder.Update(tableRecords).Prepared(true).
		Set(goqu.Record{colReturnDate: date}).
		Where(goqu.C(colID).Eq(id.String()), goqu.C(colReturnDate).IsNull()))
}

func listRecordsQuery(patronID string) (query, error) {
	return build(builder.From(tableRecords).Prepared(true).
		Select(recordColumns...).
		Where(goqu.C(colPatronID).Eq(patronID)).
		Order(goqu.C(colBorrowDate).Asc(), goqu.C(colID).Asc()))
}

// lockPatronQuery takes a transaction-scoped advisory lock keyed by the
// patron id.
func lockPatronQuery(patronID string) (query, error) {
	return build(builder.Select(
		goqu.Func("pg_advisory_xact_lock", goqu.Func("hashtext", patronID)),
	).Prepared(true))
}
