package summary

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spendly/internal/core"
)

// Alert levels, from most to least severe.
const (
	AlertExceeded = "exceeded"
	AlertOver90   = "over_90"
	AlertOver75   = "over_75"
)

// Alert is a budget threshold notification.
type Alert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Color   string `json:"color"`
}

// MonthlyTotal is the amount spent in one calendar month.
type MonthlyTotal struct {
	Month  string  `json:"month"` // "Jan 2024"
	Amount float64 `json:"amount"`
}

// BudgetStatus is the budget view of one user for the current month.
type BudgetStatus struct {
	Budget      float64        `json:"budget"`
	Spent       float64        `json:"spent"`
	Remaining   float64        `json:"remaining"`
	PercentUsed float64        `json:"percentUsed"`
	Alert       *Alert         `json:"alert"`
	Monthly     []MonthlyTotal `json:"monthly"`
	YAxisMax    float64        `json:"yAxisMax"`
}

// MonthRecords returns the records dated in the same month and year as now.
func MonthRecords(records []core.Record, now time.Time) []core.Record {
	out := make([]core.Record, 0)
	for _, r := range records {
		month, year, ok := core.MonthYear(r.Date)
		if !ok {
			continue
		}
		if month == int(now.Month()) && year == now.Year() {
			out = append(out, r)
		}
	}
	return out
}

// AlertFor returns the alert for spent against budget, or nil when no
// threshold is reached. Thresholds are judged on the uncapped ratio.
func AlertFor(spent, budget float64) *Alert {
	if budget <= 0 {
		return nil
	}
	ratio := decimal.NewFromFloat(spent).Div(decimal.NewFromFloat(budget))
	switch {
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return &Alert{Level: AlertExceeded, Message: "You have exceeded your budget!", Color: "red"}
	case ratio.GreaterThanOrEqual(decimal.RequireFromString("0.9")):
		return &Alert{Level: AlertOver90, Message: "You have used over 90% of your budget.", Color: "orange"}
	case ratio.GreaterThanOrEqual(decimal.RequireFromString("0.75")):
		return &Alert{Level: AlertOver75, Message: "You have used over 75% of your budget.", Color: "yellow"}
	default:
		return nil
	}
}

// PercentUsed returns spent as a percentage of budget capped at 100.
func PercentUsed(spent, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	p := decimal.NewFromFloat(spent).Div(decimal.NewFromFloat(budget)).Mul(decimal.NewFromInt(100))
	if p.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return p.InexactFloat64()
}

// MonthlyTotals groups records by month over their whole history. Records
// whose date has no numeric month and year are skipped.
func MonthlyTotals(records []core.Record) []MonthlyTotal {
	type key struct{ year, month int }
	sums := make(map[key]decimal.Decimal)
	for _, r := range records {
		month, year, ok := core.MonthYear(r.Date)
		if !ok || month < 1 || month > 12 {
			continue
		}
		k := key{year, month}
		sums[k] = sums[k].Add(amountOf(r))
	}

	keys := make([]key, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]MonthlyTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthlyTotal{
			Month:  fmt.Sprintf("%s %d", time.Month(k.month).String()[:3], k.year),
			Amount: sums[k].InexactFloat64(),
		})
	}
	return out
}

// EvaluateBudget computes the budget status of records for the month of now.
func EvaluateBudget(budget float64, records []core.Record, now time.Time) BudgetStatus {
	spent := Total(MonthRecords(records, now))
	remaining := decimal.NewFromFloat(budget).Sub(decimal.NewFromFloat(spent))
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	monthly := MonthlyTotals(records)
	peak := budget
	for _, m := range monthly {
		peak = math.Max(peak, m.Amount)
	}

	return BudgetStatus{
		Budget:      budget,
		Spent:       spent,
		Remaining:   remaining.InexactFloat64(),
		PercentUsed: PercentUsed(spent, budget),
		Alert:       AlertFor(spent, budget),
		Monthly:     monthly,
		YAxisMax:    decimal.NewFromFloat(peak).Mul(decimal.RequireFromString("1.1")).Ceil().InexactFloat64(),
	}
}
