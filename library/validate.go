package library

import (
	"reflect"
	"strings"
	"unicode/utf8"
)

const (
	PatronIDLength  = 6
	ISBNLength      = 13
	MaxTitleLength  = 200
	MaxAuthorLength = 100
)

// ValidatePatronID accepts exactly six ASCII digits and nothing else.
func ValidatePatronID(s string) error {
	if !allDigits(s, PatronIDLength) {
		return ErrInvalidPatronID
	}
	return nil
}

// ValidateBookID accepts any id from 1 up.
func ValidateBookID(id int64) error {
	if id < 1 {
		return ErrInvalidBookID
	}
	return nil
}

// ValidateISBN accepts exactly thirteen ASCII digits.
func ValidateISBN(isbn string) error {
	if !allDigits(isbn, ISBNLength) {
		return ErrInvalidISBN
	}
	return nil
}

// PatronIDFrom validates a patron id taken from untyped input such as a
// decoded JSON body. Only strings qualify; the number 123456 does not.
func PatronIDFrom(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", ErrInvalidPatronID
	}
	return s, ValidatePatronID(s)
}

// BookIDFrom validates a book id taken from untyped input. Integers qualify;
// floats, numeric strings, booleans and nil do not.
func BookIDFrom(v any) (int64, error) {
	id, ok := IntegerFrom(v)
	if !ok {
		return 0, ErrInvalidBookID
	}
	return id, ValidateBookID(id)
}

// numberLiteral is a decoded JSON number kept as text, such as json.Number.
type numberLiteral interface {
	Int64() (int64, error)
	String() string
}

// IntegerFrom extracts an integer from untyped input. It understands Go integer
// kinds and json.Number values holding an integer literal ("1", not "1.0").
func IntegerFrom(v any) (int64, bool) {
	switch n := v.(type) {
	case nil, bool, string, float32, float64:
		return 0, false
	case numberLiteral:
		i, err := n.Int64()
		return i, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

// NewBook is a catalog insertion request before validation.
type NewBook struct {
	Title       string
	Author      string
	ISBN        string
	TotalCopies int
}

// ValidateNewBook trims title and author and checks every field. The returned
// book is ready to insert with all copies available.
func ValidateNewBook(nb NewBook) (*Book, error) {
	title := strings.TrimSpace(nb.Title)
	author := strings.TrimSpace(nb.Author)
	switch {
	case title == "":
		return nil, ErrTitleRequired
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return nil, ErrTitleTooLong
	case author == "":
		return nil, ErrAuthorRequired
	case utf8.RuneCountInString(author) > MaxAuthorLength:
		return nil, ErrAuthorTooLong
	}
	if err := ValidateISBN(nb.ISBN); err != nil {
		return nil, err
	}
	if nb.TotalCopies < 1 {
		return nil, ErrInvalidCopies
	}
	return &Book{
		Title:           title,
		Author:          author,
		ISBN:            nb.ISBN,
		TotalCopies:     nb.TotalCopies,
		AvailableCopies: nb.TotalCopies,
	}, nil
}

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
