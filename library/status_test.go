package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatronStatusUnknownPatron(t *testing.T) {
	e, db, _ := newTestEngine(t)
	s := NewStatusAggregator(e, db)

	rep, err := s.PatronStatus(context.Background(), "999999")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, rep.Status)
	assert.Equal(t, "999999", rep.PatronID)
	assert.Zero(t, rep.NumberOfBooksBorrowed)
	assert.Zero(t, rep.TotalLateFeesOwed)
	assert.NotNil(t, rep.CurrentlyBorrowed)
	assert.Empty(t, rep.CurrentlyBorrowed)
	assert.NotNil(t, rep.BorrowingHistory)
	assert.Empty(t, rep.BorrowingHistory)
}

func TestPatronStatusInvalidPatron(t *testing.T) {
	e, db, _ := newTestEngine(t)
	s := NewStatusAggregator(e, db)

	for _, id := range []string{"", "12345", "1234567", "abcdef", "12 456"} {
		rep, err := s.PatronStatus(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, StatusError, rep.Status, id)
		assert.Equal(t, KindInvalidPatronID, rep.Kind, id)
		assert.Equal(t, ErrInvalidPatronID.Message, rep.Message)
	}
}

func TestPatronStatusReport(t *testing.T) {
	ctx := context.Background()
	e, db, clock := newTestEngine(t)
	s := NewStatusAggregator(e, db)

	dune := insertBook(t, db, "Dune", "Frank Herbert", "9780441013593", 2)
	emma := insertBook(t, db, "Emma", "Jane Austen", "9780141439587", 1)
	gatsby := insertBook(t, db, "The Great Gatsby", "F. Scott Fitzgerald", "9780743273565", 3)

	// Dune is borrowed and returned, then Emma and Gatsby stay out.
	_, err := e.Borrow(ctx, "123456", dune)
	require.NoError(t, err)
	clock.Advance(day)
	_, err = e.Return(ctx, "123456", dune)
	require.NoError(t, err)

	_, err = e.Borrow(ctx, "123456", emma)
	require.NoError(t, err)
	clock.Advance(5 * day)
	_, err = e.Borrow(ctx, "123456", gatsby)
	require.NoError(t, err)

	// Emma is now 5 days overdue, Gatsby is not yet due.
	clock.Advance(14 * day)

	rep, err := s.PatronStatus(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, rep.Status)
	assert.Equal(t, 2, rep.NumberOfBooksBorrowed)
	require.Len(t, rep.CurrentlyBorrowed, 2)
	require.Len(t, rep.BorrowingHistory, 3)

	first := rep.CurrentlyBorrowed[0]
	assert.Equal(t, emma, first.BookID)
	assert.Equal(t, "Emma", first.Title)
	assert.Equal(t, "Jane Austen", first.Author)
	assert.True(t, first.IsOverdue)
	assert.Equal(t, 5, first.DaysOverdue)
	assert.Equal(t, Dollars(2, 50), first.LateFee)

	second := rep.CurrentlyBorrowed[1]
	assert.Equal(t, gatsby, second.BookID)
	assert.False(t, second.IsOverdue)
	assert.Zero(t, second.LateFee)

	assert.Equal(t, Dollars(2, 50), rep.TotalLateFeesOwed)

	assert.Equal(t, "Dune", rep.BorrowingHistory[0].Title)
	assert.True(t, rep.BorrowingHistory[0].Returned)
	require.NotNil(t, rep.BorrowingHistory[0].ReturnDate)
	assert.False(t, rep.BorrowingHistory[1].Returned)
	assert.Nil(t, rep.BorrowingHistory[1].ReturnDate)

	// The fee sum agrees with per-loan fee queries.
	var sum Money
	for _, bb := range rep.CurrentlyBorrowed {
		fr, err := e.CalculateLateFee(ctx, "123456", bb.BookID)
		require.NoError(t, err)
		sum += fr.FeeAmount
	}
	assert.Equal(t, sum, rep.TotalLateFeesOwed)
}

func TestPatronStatusWithoutCache(t *testing.T) {
	ctx := context.Background()
	e, db, _ := newTestEngine(t)
	s := NewStatusAggregator(e, db, WithBookCache(0, 0))
	id := insertBook(t, db, "Dune", "Frank Herbert", "9780441013593", 1)
	_, err := e.Borrow(ctx, "123456", id)
	require.NoError(t, err)

	rep, err := s.PatronStatus(ctx, "123456")
	require.NoError(t, err)
	require.Len(t, rep.CurrentlyBorrowed, 1)
	assert.Equal(t, "Dune", rep.CurrentlyBorrowed[0].Title)
}

func TestPatronStatusStoreUnavailable(t *testing.T) {
	e, db, _ := newTestEngine(t)
	s := NewStatusAggregator(e, db)
	require.NoError(t, db.Close())

	_, err := s.PatronStatus(context.Background(), "123456")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
