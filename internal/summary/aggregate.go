package summary

import (
	"github.com/shopspring/decimal"

	"spendly/internal/core"
)

// RecentLimit is the number of records the dashboard lists as most recent.
const RecentLimit = 5

// CategoryTotal is the summed amount of one category, a slice of the pie chart.
type CategoryTotal struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TrendPoint is the summed amount of one date on the trend line.
type TrendPoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// Dashboard is everything the dashboard view renders for a period filter.
type Dashboard struct {
	Filter     PeriodFilter    `json:"filter"`
	Records    []core.Record   `json:"records"`
	Total      float64         `json:"totalExpense"`
	Categories []CategoryTotal `json:"categoryData"`
	Trend      []TrendPoint    `json:"trendData"`
	Recent     []core.Record   `json:"recentRecords"`
}

func amountOf(r core.Record) decimal.Decimal {
	return decimal.NewFromFloat(r.Amount)
}

// Total sums the amounts of records.
func Total(records []core.Record) float64 {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(amountOf(r))
	}
	return sum.InexactFloat64()
}

// CategoryTotals sums amounts per category, ordered by first appearance.
func CategoryTotals(records []core.Record) []CategoryTotal {
	order := make([]string, 0)
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		if _, ok := sums[r.Category]; !ok {
			order = append(order, r.Category)
			sums[r.Category] = decimal.Zero
		}
		sums[r.Category] = sums[r.Category].Add(amountOf(r))
	}
	out := make([]CategoryTotal, 0, len(order))
	for _, name := range order {
		out = append(out, CategoryTotal{Name: name, Value: sums[name].InexactFloat64()})
	}
	return out
}

// Trend sums amounts per date string and orders the points chronologically.
func Trend(records []core.Record) []TrendPoint {
	order := make([]string, 0)
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		if _, ok := sums[r.Date]; !ok {
			order = append(order, r.Date)
			sums[r.Date] = decimal.Zero
		}
		sums[r.Date] = sums[r.Date].Add(amountOf(r))
	}

	// Reuse the record sort so both views agree on date ordering.
	byDate := make([]core.Record, len(order))
	for i, d := range order {
		byDate[i] = core.Record{Date: d}
	}
	SortByDate(byDate, true)

	out := make([]TrendPoint, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, TrendPoint{Date: r.Date, Amount: sums[r.Date].InexactFloat64()})
	}
	return out
}

// Recent returns up to n records, newest first. The input is not modified.
func Recent(records []core.Record, n int) []core.Record {
	sorted := append([]core.Record(nil), records...)
	SortByDate(sorted, false)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// BuildDashboard filters records by period and computes every dashboard view
// over the filtered subset.
func BuildDashboard(records []core.Record, f PeriodFilter) Dashboard {
	filtered := FilterByPeriod(records, f)
	if filtered == nil {
		filtered = []core.Record{}
	}
	return Dashboard{
		Filter:     f,
		Records:    filtered,
		Total:      Total(filtered),
		Categories: CategoryTotals(filtered),
		Trend:      Trend(filtered),
		Recent:     Recent(filtered, RecentLimit),
	}
}
