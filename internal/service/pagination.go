package service

import (
	"math"

	"github.com/pkg/errors"
)

const maxPageLimit = 100

// Page is a 1-based page number with a page size.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps raw query values; zero values fall back to the first page
// and the default size.
func NewPage(number, limit, defaultLimit int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

// ParsePage is NewPage for client input: a page whose end does not fit in
// an int is ErrInvalidInput.
func ParsePage(number, limit, defaultLimit int) (Page, error) {
	p := NewPage(number, limit, defaultLimit)
	if p.Number > math.MaxInt/p.Limit {
		return Page{}, errors.Wrap(ErrInvalidInput, "page is out of range")
	}
	return p, nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// HasNext reports whether another page follows for the given total.
func (p Page) HasNext(total int64) bool {
	return int64(p.Number)*int64(p.Limit) < total
}
