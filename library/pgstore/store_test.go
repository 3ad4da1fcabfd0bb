package pgstore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-catalog/library"
)

// testStore connects to LIBRARY_TEST_PG_DSN, migrates and empties the tables.
func testStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("LIBRARY_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LIBRARY_TEST_PG_DSN not set")
	}

	require.NoError(t, Migrate(dsn, nil))

	ctx := context.Background()
	pool, err := Connect(ctx, dsn, 16)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE borrow_records, books RESTART IDENTITY`)
	require.NoError(t, err)

	s := New(pool)
	t.Cleanup(func() { s.Close() })
	return s
}

func addBook(t *testing.T, s *Store, title, isbn string, copies int) int64 {
	t.Helper()
	id, err := s.AddBook(context.Background(), &library.Book{
		Title: title, Author: "Author", ISBN: isbn, TotalCopies: copies, AvailableCopies: copies,
	})
	require.NoError(t, err)
	return id
}

func TestStoreCatalog(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	addBook(t, s, "Zorba", "9780000000001", 1)
	addBook(t, s, "Anna Karenina", "9780000000002", 2)

	_, err := s.AddBook(ctx, &library.Book{Title: "X", Author: "Y", ISBN: "9780000000001", TotalCopies: 1, AvailableCopies: 1})
	assert.ErrorIs(t, err, library.ErrDuplicateISBN)

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Anna Karenina", books[0].Title)

	found, err := s.SearchBooks(ctx, library.SearchByTitle, "KARENINA")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = s.GetBook(ctx, 999)
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	e := library.NewEngine(s)
	id := addBook(t, s, "Dune", "9780441013593", 1)

	res, err := e.Borrow(ctx, "123456", id)
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	res, err = e.Borrow(ctx, "654321", id)
	require.NoError(t, err)
	assert.Equal(t, library.KindBookUnavailable, res.Kind)

	rr, err := e.Return(ctx, "123456", id)
	require.NoError(t, err)
	assert.True(t, rr.Success)

	fee, err := e.CalculateLateFee(ctx, "123456", id)
	require.NoError(t, err)
	assert.Equal(t, library.KindNotBorrowed, fee.Kind)

	recs, err := s.ListRecords(ctx, "123456")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.NotNil(t, recs[0].ReturnDate)
}

func TestStoreConcurrentBorrow(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	e := library.NewEngine(s)
	id := addBook(t, s, "Rare", "9780000000009", 1)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := range 10 {
		wg.Add(1)
		go func(patron string) {
			defer wg.Done()
			res, err := e.Borrow(ctx, patron, id)
			if !assert.NoError(t, err) {
				return
			}
			if res.Success {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(fmt.Sprintf("%06d", 200000+i))
	}
	wg.Wait()
	assert.Equal(t, 1, success)

	b, err := s.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, b.AvailableCopies)
}

func TestStoreConcurrentLimit(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	e := library.NewEngine(s)

	var ids []int64
	for i := range library.MaxOpenLoans + 3 {
		ids = append(ids, addBook(t, s, fmt.Sprintf("Book %d", i), fmt.Sprintf("97800000001%02d", i), 1))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			res, err := e.Borrow(ctx, "123456", id)
			if !assert.NoError(t, err) {
				return
			}
			if res.Success {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	n, err := s.CountOpenRecords(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, library.MaxOpenLoans, success)
	assert.Equal(t, library.MaxOpenLoans, n)
}
