// Package summary turns a user's expense records into the views the dashboard
// and budget pages show: filtered and sorted lists, per-category and per-date
// totals, monthly totals and budget alerts.
//
// Every function is pure. Amounts are summed with decimal arithmetic and
// converted back to float64 at the edges.
package summary
