package core

import (
	"strconv"
)

// Ellipsis marks skipped pages in a Page.Range.
const Ellipsis = "..."

// Page is one page of a paginated result set.
type Page struct {
	Number   int `json:"number"`
	NumPages int `json:"num_pages"`
	Count    int `json:"count"`
	PerPage  int `json:"per_page"`
}

// Paginate returns the requested page of `count` items split in pages of `perPage`.
// A non-integer page number yields the first page and an out of range one the last page.
// There is always at least one (possibly empty) page.
func Paginate(count, perPage int, number string) Page {
	if perPage < 1 {
		perPage = 1
	}
	numPages := (count + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}
	p := Page{Number: 1, NumPages: numPages, Count: count, PerPage: perPage}

	n, err := strconv.Atoi(number)
	switch {
	case err != nil:
	case n < 1 || n > numPages:
		p.Number = numPages
	default:
		p.Number = n
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// Range lists the page links around the current page: `span` pages on each side,
// plus the first and last pages separated by an Ellipsis when not adjacent.
func (p Page) Range(span int) []string {
	var pre, post []string

	first := p.Number - span
	if first <= 1 {
		first = 1
	} else {
		pre = append(pre, "1")
		if first > 2 {
			pre = append(pre, Ellipsis)
		}
	}

	last := p.Number + span
	if last >= p.NumPages {
		last = p.NumPages
	} else {
		if last < p.NumPages-1 {
			post = append(post, Ellipsis)
		}
		post = append(post, strconv.Itoa(p.NumPages))
	}

	rng := make([]string, 0, len(pre)+last-first+1+len(post))
	rng = append(rng, pre...)
	for i := first; i <= last; i++ {
		rng = append(rng, strconv.Itoa(i))
	}
	return append(rng, post...)
}
