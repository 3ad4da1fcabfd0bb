package library

import (
	"time"

	"github.com/google/uuid"
)

// Book represents a catalog entry and its current copy counts.
// AvailableCopies is only ever changed by the lifecycle engine.
type Book struct {
	ID              int64  `json:"id" yaml:"id" db:"id"`
	Title           string `json:"title" yaml:"title" db:"title"`
	Author          string `json:"author" yaml:"author" db:"author"`
	ISBN            string `json:"isbn" yaml:"isbn" db:"isbn"`
	TotalCopies     int    `json:"total_copies" yaml:"total_copies" db:"total_copies"`
	AvailableCopies int    `json:"available_copies" yaml:"available_copies" db:"available_copies"`
}

// BorrowRecord is one loan of one book to one patron.
// A nil ReturnDate means the loan is still open.
type BorrowRecord struct {
	ID         uuid.UUID  `json:"id" yaml:"id" db:"id"`
	PatronID   string     `json:"patron_id" yaml:"patron_id" db:"patron_id"`
	BookID     int64      `json:"book_id" yaml:"book_id" db:"book_id"`
	BorrowDate time.Time  `json:"borrow_date" yaml:"borrow_date" db:"borrow_date"`
	DueDate    time.Time  `json:"due_date" yaml:"due_date" db:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" yaml:"return_date,omitempty" db:"return_date"`
}

// Open reports whether the loan has not been returned yet.
func (r *BorrowRecord) Open() bool { return r.ReturnDate == nil }

// Result status values used by fee and status reports.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// BorrowResult is the outcome of a borrow request.
type BorrowResult struct {
	Success bool       `json:"success" yaml:"success"`
	Message string     `json:"message" yaml:"message"`
	Kind    ErrorKind  `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	DueDate *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

// ReturnResult is the outcome of a return request. LateFee is informational
// and is not stored anywhere.
type ReturnResult struct {
	Success     bool       `json:"success" yaml:"success"`
	Message     string     `json:"message" yaml:"message"`
	Kind        ErrorKind  `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ReturnDate  *time.Time `json:"return_date,omitempty" yaml:"return_date,omitempty"`
	LateFee     Money      `json:"late_fee" yaml:"late_fee"`
	DaysOverdue int        `json:"days_overdue" yaml:"days_overdue"`
}

// FeeResult is the outcome of a late fee query.
type FeeResult struct {
	Status      string    `json:"status" yaml:"status"`
	FeeAmount   Money     `json:"fee_amount" yaml:"fee_amount"`
	DaysOverdue int       `json:"days_overdue" yaml:"days_overdue"`
	Kind        ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Message     string    `json:"message,omitempty" yaml:"message,omitempty"`
}

// OK reports whether the fee was computed.
func (r FeeResult) OK() bool { return r.Status == StatusSuccess }

// AddBookResult is the outcome of a catalog insertion.
type AddBookResult struct {
	Success bool      `json:"success" yaml:"success"`
	Message string    `json:"message" yaml:"message"`
	Kind    ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	BookID  int64     `json:"book_id,omitempty" yaml:"book_id,omitempty"`
}

// BorrowedBook is an open loan as shown in a patron report.
type BorrowedBook struct {
	BookID      int64     `json:"book_id" yaml:"book_id"`
	Title       string    `json:"title" yaml:"title"`
	Author      string    `json:"author" yaml:"author"`
	BorrowDate  time.Time `json:"borrow_date" yaml:"borrow_date"`
	DueDate     time.Time `json:"due_date" yaml:"due_date"`
	IsOverdue   bool      `json:"is_overdue" yaml:"is_overdue"`
	DaysOverdue int       `json:"days_overdue" yaml:"days_overdue"`
	LateFee     Money     `json:"late_fee" yaml:"late_fee"`
}

// HistoryEntry is any loan, open or closed, as shown in a patron report.
type HistoryEntry struct {
	RecordID   uuid.UUID  `json:"record_id" yaml:"record_id"`
	BookID     int64      `json:"book_id" yaml:"book_id"`
	Title      string     `json:"title" yaml:"title"`
	Author     string     `json:"author" yaml:"author"`
	BorrowDate time.Time  `json:"borrow_date" yaml:"borrow_date"`
	DueDate    time.Time  `json:"due_date" yaml:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" yaml:"return_date,omitempty"`
	Returned   bool       `json:"returned" yaml:"returned"`
}

// StatusReport aggregates everything known about one patron.
// When Status is StatusError only Kind and Message are meaningful.
type StatusReport struct {
	Status                string         `json:"status" yaml:"status"`
	Kind                  ErrorKind      `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Message               string         `json:"message,omitempty" yaml:"message,omitempty"`
	PatronID              string         `json:"patron_id" yaml:"patron_id"`
	CurrentlyBorrowed     []BorrowedBook `json:"currently_borrowed_books" yaml:"currently_borrowed_books"`
	TotalLateFeesOwed     Money          `json:"total_late_fees_owed" yaml:"total_late_fees_owed"`
	NumberOfBooksBorrowed int            `json:"number_of_books_borrowed" yaml:"number_of_books_borrowed"`
	BorrowingHistory      []HistoryEntry `json:"borrowing_history" yaml:"borrowing_history"`
}
