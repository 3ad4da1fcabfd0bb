package library

import (
	"context"
	"fmt"
)

// SamplePatronID holds the sample loan created by SeedSampleData.
const SamplePatronID = "123456"

var sampleBooks = []NewBook{
	{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", ISBN: "9780743273565", TotalCopies: 3},
	{Title: "To Kill a Mockingbird", Author: "Harper Lee", ISBN: "9780061120084", TotalCopies: 2},
	{Title: "1984", Author: "George Orwell", ISBN: "9780451524935", TotalCopies: 1},
}

// SeedReport says what SeedSampleData did.
type SeedReport struct {
	Skipped bool     `json:"skipped" yaml:"skipped"`
	Books   []*Book  `json:"books" yaml:"books"`
	Loans   []string `json:"loans" yaml:"loans"`
}

// SeedSampleData fills an empty catalog with three books and lends the only
// copy of "1984" to SamplePatronID. A non-empty catalog is left untouched.
func (lm *LibraryManager) SeedSampleData(ctx context.Context) (SeedReport, error) {
	existing, err := lm.catalog.ListBooks(ctx)
	if err != nil {
		return SeedReport{}, err
	}
	if len(existing) > 0 {
		return SeedReport{Skipped: true, Books: existing, Loans: []string{}}, nil
	}

	rep := SeedReport{Books: []*Book{}, Loans: []string{}}
	var lendID int64
	for _, nb := range sampleBooks {
		res, err := lm.catalog.AddBook(ctx, nb)
		if err != nil {
			return rep, err
		}
		if !res.Success {
			return rep, fmt.Errorf("seed %q: %s", nb.Title, res.Message)
		}
		if nb.TotalCopies == 1 {
			lendID = res.BookID
		}
	}

	br, err := lm.engine.Borrow(ctx, SamplePatronID, lendID)
	if err != nil {
		return rep, err
	}
	if !br.Success {
		return rep, fmt.Errorf("seed loan: %s", br.Message)
	}
	rep.Loans = append(rep.Loans, br.Message)

	if rep.Books, err = lm.catalog.ListBooks(ctx); err != nil {
		return rep, err
	}
	return rep, nil
}
