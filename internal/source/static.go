package source

import (
	"fmt"

	"github.com/ppiankov/taxscroll/internal/model"
)

// Static serves pages already held in memory; page i of the slice is page i+1
type Static []*model.Page

// NumPages returns the number of pages
func (s Static) NumPages() int {
	return len(s)
}

// Page returns page n
func (s Static) Page(n int) (*model.Page, error) {
	if n < 1 || n > len(s) {
		return nil, fmt.Errorf("%w: page %d out of range 1-%d", ErrUnreadable, n, len(s))
	}
	return s[n-1], nil
}
