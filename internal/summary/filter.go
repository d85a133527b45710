package summary

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"spendly/internal/core"
)

// Price brackets for record filtering.
const (
	PriceAll    = "all"
	PriceBelow  = "1" // amount < 100
	PriceMiddle = "2" // 100 <= amount <= 500
	PriceAbove  = "3" // amount > 500
)

// Sort orders by parsed record date.
const (
	SortDesc = "desc"
	SortAsc  = "asc"
)

// Period filter types used by the dashboard.
const (
	PeriodAll   = "all"
	PeriodDay   = "day"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// ErrInvalidFilter is returned for filter values no client should send.
var ErrInvalidFilter = errors.New("invalid filter")

// RecordFilter holds the selections of the record list view.
type RecordFilter struct {
	Category string // "" or "all" matches any category
	Date     string // exact dd-mm-yyyy match, "" matches any date
	Price    string // one of the Price* brackets, "" means all
	Sort     string // SortDesc (default) or SortAsc
}

// PeriodFilter selects a day, month (mm-yyyy) or year (yyyy) of records.
type PeriodFilter struct {
	Type  string `json:"filterType"`
	Value string `json:"filterValue"`
}

// Validate rejects selections that can never be produced by the UI.
func (f RecordFilter) Validate() error {
	if f.Category != "" && f.Category != "all" && !core.IsKnownCategory(f.Category) {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, f.Category)
	}
	switch f.Price {
	case "", PriceAll, PriceBelow, PriceMiddle, PriceAbove:
	default:
		return fmt.Errorf("%w: price range %q", ErrInvalidFilter, f.Price)
	}
	switch f.Sort {
	case "", SortDesc, SortAsc:
	default:
		return fmt.Errorf("%w: sort order %q", ErrInvalidFilter, f.Sort)
	}
	return nil
}

func (f PeriodFilter) Validate() error {
	switch f.Type {
	case "", PeriodAll, PeriodDay, PeriodMonth, PeriodYear:
		return nil
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidFilter, f.Type)
	}
}

// FilterRecords applies category, date and price filters and sorts the result
// by date. The input slice is not modified.
func FilterRecords(records []core.Record, f RecordFilter) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if f.Category != "" && f.Category != "all" && r.Category != f.Category {
			continue
		}
		if f.Date != "" && r.Date != f.Date {
			continue
		}
		if !inPriceRange(r.Amount, f.Price) {
			continue
		}
		out = append(out, r)
	}
	SortByDate(out, f.Sort == SortAsc)
	return out
}

func inPriceRange(amount float64, bracket string) bool {
	switch bracket {
	case PriceBelow:
		return amount < 100
	case PriceMiddle:
		return amount >= 100 && amount <= 500
	case PriceAbove:
		return amount > 500
	default:
		return true
	}
}

// FilterByPeriod keeps the records of the selected day, month or year. An "all"
// type or a blank value returns the records unchanged.
func FilterByPeriod(records []core.Record, f PeriodFilter) []core.Record {
	value := strings.TrimSpace(f.Value)
	if f.Type == "" || f.Type == PeriodAll || value == "" {
		return records
	}
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		_, month, year := core.DateSegments(r.Date)
		var keep bool
		switch f.Type {
		case PeriodDay:
			keep = r.Date == value
		case PeriodMonth:
			keep = month+"-"+year == value
		case PeriodYear:
			keep = year == value
		default:
			keep = true
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

// SortByDate sorts records in place by their parsed dd-mm-yyyy date, newest
// first unless asc is set. Records with unparseable dates compare as the zero
// time and ties keep their input order.
func SortByDate(records []core.Record, asc bool) {
	keys := make(map[int]time.Time, len(records))
	idx := make([]int, len(records))
	for i, r := range records {
		idx[i] = i
		keys[i] = dateKey(r.Date)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if asc {
			return ka.Before(kb)
		}
		return ka.After(kb)
	})
	sorted := make([]core.Record, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	copy(records, sorted)
}

func dateKey(s string) time.Time {
	t, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
