package library

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StatusAggregator builds per-patron reports from the records the Engine
// writes. It never mutates anything.
type StatusAggregator struct {
	engine *Engine
	acc    Accessor
	books  *bookCache
	logger Logger
}

// NewStatusAggregator reads records through acc and prices open loans with
// engine's policy and clock.
func NewStatusAggregator(engine *Engine, acc Accessor, opts ...Option) *StatusAggregator {
	o := buildOptions(opts)
	return &StatusAggregator{
		engine: engine,
		acc:    acc,
		books:  newBookCache(o.cacheCap, o.cacheTTL),
		logger: o.logger,
	}
}

// PatronStatus reports open loans, fees owed and full history for patronID.
// A patron with no records gets an empty report, not an error.
func (s *StatusAggregator) PatronStatus(ctx context.Context, patronID string) (rep StatusReport, err error) {
	start := time.Now()
	var failure *Failure
	defer func() { observe(opStatus, start, failure, err) }()

	if ValidatePatronID(patronID) != nil {
		failure = ErrInvalidPatronID
		return StatusReport{
			Status:            StatusError,
			Kind:              failure.Kind,
			Message:           failure.Message,
			PatronID:          patronID,
			CurrentlyBorrowed: []BorrowedBook{},
			BorrowingHistory:  []HistoryEntry{},
		}, nil
	}

	records, err := s.acc.ListRecords(ctx, patronID)
	if err != nil {
		return StatusReport{}, storeUnavailable(err)
	}

	rep = StatusReport{
		Status:            StatusSuccess,
		PatronID:          patronID,
		CurrentlyBorrowed: []BorrowedBook{},
		BorrowingHistory:  make([]HistoryEntry, 0, len(records)),
	}

	now := s.engine.now()
	for _, rec := range records {
		id, err := s.books.lookup(ctx, s.acc, rec.BookID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				err = fmt.Errorf("record %s references missing book %d: %w", rec.ID, rec.BookID, err)
			}
			return StatusReport{}, storeUnavailable(err)
		}

		rep.BorrowingHistory = append(rep.BorrowingHistory, HistoryEntry{
			RecordID:   rec.ID,
			BookID:     rec.BookID,
			Title:      id.Title,
			Author:     id.Author,
			BorrowDate: rec.BorrowDate,
			DueDate:    rec.DueDate,
			ReturnDate: rec.ReturnDate,
			Returned:   !rec.Open(),
		})
		if !rec.Open() {
			continue
		}

		days, fee := s.engine.assess(rec, now)
		rep.CurrentlyBorrowed = append(rep.CurrentlyBorrowed, BorrowedBook{
			BookID:      rec.BookID,
			Title:       id.Title,
			Author:      id.Author,
			BorrowDate:  rec.BorrowDate,
			DueDate:     rec.DueDate,
			IsOverdue:   now.After(rec.DueDate),
			DaysOverdue: days,
			LateFee:     fee,
		})
		rep.TotalLateFeesOwed += fee
	}
	rep.NumberOfBooksBorrowed = len(rep.CurrentlyBorrowed)

	s.logger.Debug("patron status built", "patron_id", patronID,
		"open", rep.NumberOfBooksBorrowed, "history", len(rep.BorrowingHistory))
	return rep, nil
}
