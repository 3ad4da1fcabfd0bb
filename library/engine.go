package library

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Engine enforces the borrowing rules. It is the only writer of
// available copies and borrow records.
type Engine struct {
	store  Store
	policy Policy
	now    func() time.Time
	logger Logger
}

// NewEngine builds an engine over store.
func NewEngine(store Store, opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		store:  store,
		policy: o.policy,
		now:    o.clock,
		logger: o.logger,
	}
}

// Policy returns the schedule the engine charges by.
func (e *Engine) Policy() Policy { return e.policy }

// Borrow lends one copy of bookID to patronID. Business and validation
// failures come back as an unsuccessful result; the error is non-nil only
// when the store fails, and then it matches ErrStoreUnavailable.
func (e *Engine) Borrow(ctx context.Context, patronID string, bookID int64) (res BorrowResult, err error) {
	start := time.Now()
	var failure *Failure
	defer func() { observe(opBorrow, start, failure, err) }()

	if failure = validateLoanArgs(patronID, bookID); failure != nil {
		return failedBorrow(failure), nil
	}

	now := e.now()
	due := e.policy.DueDate(now)
	var title string

	txErr := e.store.WithinTx(ctx, func(tx Tx) error {
		if err := tx.LockPatron(ctx, patronID); err != nil {
			return err
		}
		b, err := lookupBook(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if b.AvailableCopies <= 0 {
			return ErrBookUnavailable
		}
		switch _, err := tx.FindOpenRecord(ctx, patronID, bookID); {
		case err == nil:
			return ErrAlreadyBorrowed
		case !errors.Is(err, ErrNotFound):
			return err
		}
		open, err := tx.CountOpenRecords(ctx, patronID)
		if err != nil {
			return err
		}
		if open >= MaxOpenLoans {
			return ErrBorrowLimit
		}

		if err := tx.UpdateAvailableCopies(ctx, bookID, b.AvailableCopies-1); err != nil {
			return fmt.Errorf("decrement copies: %w", err)
		}
		if _, err := tx.CreateRecord(ctx, patronID, bookID, now, due); err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		title = b.Title
		return nil
	})

	if errors.As(txErr, &failure) {
		e.logger.Debug("borrow refused", "patron_id", patronID, "book_id", bookID, "kind", failure.Kind)
		return failedBorrow(failure), nil
	}
	if txErr != nil {
		e.logger.Warn("borrow failed", "patron_id", patronID, "book_id", bookID, "error", txErr)
		return BorrowResult{}, storeUnavailable(txErr)
	}

	e.logger.Info("book borrowed", "patron_id", patronID, "book_id", bookID, "due_date", due)
	return BorrowResult{
		Success: true,
		Message: fmt.Sprintf("Successfully borrowed %q. Due date: %s.", title, due.Format(time.DateOnly)),
		DueDate: &due,
	}, nil
}

// Return closes the patron's open loan of bookID and puts the copy back.
// The late fee in the result is informational and is not stored.
func (e *Engine) Return(ctx context.Context, patronID string, bookID int64) (res ReturnResult, err error) {
	start := time.Now()
	var failure *Failure
	defer func() { observe(opReturn, start, failure, err) }()

	if failure = validateLoanArgs(patronID, bookID); failure != nil {
		return failedReturn(failure), nil
	}

	now := e.now()
	var (
		title string
		days  int
		fee   Money
	)

	txErr := e.store.WithinTx(ctx, func(tx Tx) error {
		if err := tx.LockPatron(ctx, patronID); err != nil {
			return err
		}
		b, err := lookupBook(ctx, tx, bookID)
		if err != nil {
			return err
		}
		rec, err := tx.FindOpenRecord(ctx, patronID, bookID)
		if errors.Is(err, ErrNotFound) {
			return ErrNotBorrowed
		}
		if err != nil {
			return err
		}

		if err := tx.SetReturnDate(ctx, rec.ID, now); err != nil {
			return fmt.Errorf("set return date: %w", err)
		}
		if err := tx.UpdateAvailableCopies(ctx, bookID, b.AvailableCopies+1); err != nil {
			return fmt.Errorf("increment copies: %w", err)
		}
		title = b.Title
		days, fee = e.assess(rec, now)
		return nil
	})

	if errors.As(txErr, &failure) {
		e.logger.Debug("return refused", "patron_id", patronID, "book_id", bookID, "kind", failure.Kind)
		return failedReturn(failure), nil
	}
	if txErr != nil {
		e.logger.Warn("return failed", "patron_id", patronID, "book_id", bookID, "error", txErr)
		return ReturnResult{}, storeUnavailable(txErr)
	}

	lateFeesAssessedCents.Add(float64(fee))
	e.logger.Info("book returned", "patron_id", patronID, "book_id", bookID, "days_overdue", days, "late_fee", fee.String())

	msg := fmt.Sprintf("Successfully returned %q.", title)
	if fee > 0 {
		msg += fmt.Sprintf(" Late fee: $%s (%d days overdue).", fee, days)
	}
	return ReturnResult{
		Success:     true,
		Message:     msg,
		ReturnDate:  &now,
		LateFee:     fee,
		DaysOverdue: days,
	}, nil
}

// CalculateLateFee reports what the patron would owe for bookID right now.
// Only an open loan qualifies; a returned loan reports NotBorrowed.
func (e *Engine) CalculateLateFee(ctx context.Context, patronID string, bookID int64) (res FeeResult, err error) {
	start := time.Now()
	var failure *Failure
	defer func() { observe(opFee, start, failure, err) }()

	if failure = validateLoanArgs(patronID, bookID); failure != nil {
		return failedFee(failure), nil
	}

	if _, err := lookupBook(ctx, e.store, bookID); err != nil {
		if errors.As(err, &failure) {
			return failedFee(failure), nil
		}
		return FeeResult{}, storeUnavailable(err)
	}

	rec, err := e.store.FindOpenRecord(ctx, patronID, bookID)
	if errors.Is(err, ErrNotFound) {
		failure = ErrNotBorrowed
		return failedFee(failure), nil
	}
	if err != nil {
		return FeeResult{}, storeUnavailable(err)
	}

	days, fee := e.assess(rec, e.now())
	return FeeResult{Status: StatusSuccess, FeeAmount: fee, DaysOverdue: days}, nil
}

// assess computes days overdue and the fee for an open record at now.
func (e *Engine) assess(rec *BorrowRecord, now time.Time) (int, Money) {
	days := DaysOverdue(rec.DueDate, now)
	return days, e.policy.LateFee(days)
}

func validateLoanArgs(patronID string, bookID int64) *Failure {
	if err := ValidatePatronID(patronID); err != nil {
		return ErrInvalidPatronID
	}
	if err := ValidateBookID(bookID); err != nil {
		return ErrInvalidBookID
	}
	return nil
}

// lookupBook maps a missing row to the BookNotFound failure.
func lookupBook(ctx context.Context, acc CatalogAccessor, id int64) (*Book, error) {
	b, err := acc.GetBook(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBookNotFound
	}
	return b, err
}

func failedBorrow(f *Failure) BorrowResult {
	return BorrowResult{Message: f.Message, Kind: f.Kind}
}

func failedReturn(f *Failure) ReturnResult {
	return ReturnResult{Message: f.Message, Kind: f.Kind}
}

func failedFee(f *Failure) FeeResult {
	return FeeResult{Status: StatusError, Kind: f.Kind, Message: f.Message}
}
