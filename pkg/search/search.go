// Package search filters, orders and pages the resource dataset for one
// request. Everything here is pure: the dataset is never mutated.
package search

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

const DefaultPerPage = 20

// Record is one searchable resource. Absent fields are empty strings.
type Record struct {
	Name      string
	URL       string
	Timestamp string
}

type ResultPage struct {
	Items       []Record
	Query       string
	CurrentPage int
	TotalPages  int
	TotalItems  int
	PerPage     int
}

// Offset is the index of the first item of the current page within the
// ordered result set.
func (p ResultPage) Offset() int {
	return (p.CurrentPage - 1) * p.PerPage
}

func (p ResultPage) HasPrev() bool { return p.CurrentPage > 1 }
func (p ResultPage) HasNext() bool { return p.CurrentPage < p.TotalPages }

// Engine runs the filter, sort and paginate pipeline. The zero value pages
// by DefaultPerPage and reads zone-less timestamps as UTC.
type Engine struct {
	PerPage  int
	Location *time.Location
}

func (e Engine) perPage() int {
	if e.PerPage <= 0 {
		return DefaultPerPage
	}
	return e.PerPage
}

func (e Engine) location() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

// Run filters dataset by query, orders the matches newest first and returns
// the requested page.
func (e Engine) Run(dataset []Record, query string, page int) ResultPage {
	matches := Filter(dataset, query)
	ordered := e.Sort(matches)
	result := Paginate(ordered, page, e.perPage())
	result.Query = query
	return result
}

// Filter returns the records whose name contains query, compared under
// Unicode case folding. An empty query matches nothing.
func Filter(dataset []Record, query string) []Record {
	if len(query) == 0 {
		return []Record{}
	}

	// a Caser keeps state, so each call gets its own
	fold := cases.Fold()
	needle := fold.String(query)

	matches := []Record{}
	for _, rec := range dataset {
		if len(rec.Name) == 0 {
			continue
		}
		if strings.Contains(fold.String(rec.Name), needle) {
			matches = append(matches, Record{
				Name:      rec.Name,
				URL:       rec.URL,
				Timestamp: rec.Timestamp,
			})
		}
	}
	return matches
}

// Sort orders matches newest first using UTC for zone-less timestamps.
func Sort(matches []Record) []Record {
	return Engine{}.Sort(matches)
}

// Sort returns a newly allocated copy of matches ordered by descending
// timestamp. Records with equal or unparseable timestamps keep their input
// order; unparseable ones sort last.
func (e Engine) Sort(matches []Record) []Record {
	type keyed struct {
		rec Record
		at  time.Time
	}

	loc := e.location()
	keys := make([]keyed, len(matches))
	for i, rec := range matches {
		at, _ := ParseTimestamp(rec.Timestamp, loc)
		keys[i] = keyed{rec: rec, at: at}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int {
		return b.at.Compare(a.at)
	})

	ordered := make([]Record, len(keys))
	for i, k := range keys {
		ordered[i] = k.rec
	}
	return ordered
}

// Paginate slices ordered into pages of perPage items and returns the
// requested one. page is clamped into [1, max(TotalPages, 1)].
func Paginate(ordered []Record, page, perPage int) ResultPage {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	total := len(ordered)
	totalPages := (total + perPage - 1) / perPage

	current := ClampPage(page, totalPages)
	offset := (current - 1) * perPage

	items := []Record{}
	if offset < total {
		end := min(offset+perPage, total)
		items = ordered[offset:end:end]
	}

	return ResultPage{
		Items:       items,
		CurrentPage: current,
		TotalPages:  totalPages,
		TotalItems:  total,
		PerPage:     perPage,
	}
}

// ClampPage pins page into [1, max(totalPages, 1)].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > max(totalPages, 1) {
		return max(totalPages, 1)
	}
	return page
}

// ParsePage reads a page number from a query parameter. Anything that is not
// an integer yields 0, which Paginate clamps to the first page.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
