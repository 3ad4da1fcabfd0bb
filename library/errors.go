package library

import (
	"errors"
	"fmt"
)

// ErrorKind names a recoverable failure reported inside a result.
type ErrorKind string

const (
	KindInvalidPatronID     ErrorKind = "InvalidPatronId"
	KindInvalidBookID       ErrorKind = "InvalidBookId"
	KindBookNotFound        ErrorKind = "BookNotFound"
	KindBookUnavailable     ErrorKind = "BookUnavailable"
	KindAlreadyBorrowed     ErrorKind = "AlreadyBorrowed"
	KindBorrowLimitExceeded ErrorKind = "BorrowLimitExceeded"
	KindNotBorrowed         ErrorKind = "NotBorrowed"

	// catalog insertion
	KindInvalidTitle  ErrorKind = "InvalidTitle"
	KindInvalidAuthor ErrorKind = "InvalidAuthor"
	KindInvalidISBN   ErrorKind = "InvalidIsbn"
	KindInvalidCopies ErrorKind = "InvalidCopies"
	KindDuplicateISBN ErrorKind = "DuplicateIsbn"
)

// Failure is a validation or business-rule outcome. Operations turn it into a
// result value; it never leaves the package as a returned error.
type Failure struct {
	Kind    ErrorKind
	Message string
}

func (f *Failure) Error() string { return f.Message }

// Is matches any Failure of the same kind, so errors.Is works against the
// package sentinels even when the message was customised.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Kind == f.Kind
}

var (
	ErrInvalidPatronID = &Failure{KindInvalidPatronID, "Invalid patron ID. Must be exactly 6 digits."}
	ErrInvalidBookID   = &Failure{KindInvalidBookID, "Invalid book ID. Must be a positive integer."}
	ErrBookNotFound    = &Failure{KindBookNotFound, "Book not found."}
	ErrBookUnavailable = &Failure{KindBookUnavailable, "This book is currently not available."}
	ErrAlreadyBorrowed = &Failure{KindAlreadyBorrowed, "You have already borrowed this book."}
	ErrBorrowLimit     = &Failure{KindBorrowLimitExceeded, fmt.Sprintf("You have reached the maximum borrowing limit of %d books.", MaxOpenLoans)}
	ErrNotBorrowed     = &Failure{KindNotBorrowed, "Book not borrowed by this patron."}

	ErrTitleRequired  = &Failure{KindInvalidTitle, "Title is required."}
	ErrTitleTooLong   = &Failure{KindInvalidTitle, fmt.Sprintf("Title must be at most %d characters.", MaxTitleLength)}
	ErrAuthorRequired = &Failure{KindInvalidAuthor, "Author is required."}
	ErrAuthorTooLong  = &Failure{KindInvalidAuthor, fmt.Sprintf("Author must be at most %d characters.", MaxAuthorLength)}
	ErrInvalidISBN    = &Failure{KindInvalidISBN, "ISBN must be exactly 13 digits."}
	ErrInvalidCopies  = &Failure{KindInvalidCopies, "Total copies must be a positive integer."}
	ErrISBNExists     = &Failure{KindDuplicateISBN, "A book with this ISBN already exists."}
)

// Store-level errors. Backends return these (possibly wrapped) so callers can
// tell missing rows and constraint violations apart from outages.
var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrCopiesOutOfRange is returned by UpdateAvailableCopies when the new
	// value falls outside [0, total_copies].
	ErrCopiesOutOfRange = errors.New("available copies out of range")

	// ErrDuplicateISBN is returned by AddBook when the ISBN is already cataloged.
	ErrDuplicateISBN = errors.New("duplicate isbn")

	// ErrStoreUnavailable marks every infrastructure failure that escapes a
	// public operation. The original cause is joined to it.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func storeUnavailable(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
