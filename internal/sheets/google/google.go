package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"spendly/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultRowCacheTTL = 2 * time.Minute

// Options configures a ledger Client.
type Options struct {
	SpreadsheetID string
	RecordsSheet  string
	AlertsSheet   string

	// Service account credentials: inline JSON wins over the file path.
	CredentialsJSON string
	CredentialsFile string
}

type rowCount struct {
	count     int
	expiresAt time.Time
}

// Client appends ledger rows to a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	recordsSheet  string
	alertsSheet   string

	// Row counts are cached per sheet to skip a read before every append.
	mu                 sync.Mutex
	rows               map[string]rowCount
	cacheValidDuration time.Duration
}

var _ sheets.LedgerWriter = (*Client)(nil)

// New creates a Sheets ledger client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if opts.RecordsSheet == "" {
		opts.RecordsSheet = "Records"
	}
	if opts.AlertsSheet == "" {
		opts.AlertsSheet = "Alerts"
	}

	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:                svc,
		spreadsheetID:      opts.SpreadsheetID,
		recordsSheet:       opts.RecordsSheet,
		alertsSheet:        opts.AlertsSheet,
		rows:               map[string]rowCount{},
		cacheValidDuration: defaultRowCacheTTL,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither source is given.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case credentialsJSON != "":
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) AppendRecord(ctx context.Context, e sheets.RecordEntry) (string, error) {
	if e.Event == "" {
		return "", errors.New("record entry without event")
	}
	return c.appendRow(ctx, c.recordsSheet, sheets.RecordHeader, recordRow(e))
}

func (c *Client) AppendAlert(ctx context.Context, e sheets.AlertEntry) (string, error) {
	if e.Level == "" {
		return "", errors.New("alert entry without level")
	}
	return c.appendRow(ctx, c.alertsSheet, sheets.AlertHeader, alertRow(e))
}

// appendRow writes values on the row after the last used one, writing the
// header first when the sheet is empty.
func (c *Client) appendRow(ctx context.Context, sheet string, header []string, values []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	used, err := c.usedRows(ctx, sheet)
	if err != nil {
		return "", err
	}

	rows := [][]any{values}
	if used == 0 {
		rows = [][]any{headerRow(header), values}
	}
	first := used + 1
	last := used + len(rows)

	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, first, columnLetter(len(header)), last)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.invalidate(sheet)
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	c.mu.Lock()
	c.rows[sheet] = rowCount{count: last, expiresAt: time.Now().Add(c.cacheValidDuration)}
	c.mu.Unlock()

	return fmt.Sprintf("%s!A%d:%s%d", sheet, last, columnLetter(len(header)), last), nil
}

func (c *Client) usedRows(ctx context.Context, sheet string) (int, error) {
	c.mu.Lock()
	cached, ok := c.rows[sheet]
	c.mu.Unlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.count, nil
	}

	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}
	return len(resp.Values), nil
}

func (c *Client) invalidate(sheet string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rows, sheet)
}

// InvalidateRowCache forgets every cached row count, forcing a read before
// the next append. Used after the sheet is edited by hand.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = map[string]rowCount{}
}

func headerRow(header []string) []any {
	out := make([]any, len(header))
	for i, h := range header {
		out[i] = h
	}
	return out
}

func recordRow(e sheets.RecordEntry) []any {
	r := e.Record
	return []any{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Event,
		r.ID,
		r.Email,
		r.Date,
		r.Category,
		formatAmount(r.Amount),
		r.Notes,
	}
}

func alertRow(e sheets.AlertEntry) []any {
	return []any{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Email,
		e.Level,
		formatAmount(e.Spent),
		formatAmount(e.Budget),
		strconv.FormatFloat(e.Percent, 'f', 1, 64),
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// columnLetter returns the A1 column name of the n-th column (1-based).
func columnLetter(n int) string {
	var s string
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}
