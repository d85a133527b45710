package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"spendly/internal/core"
	"spendly/internal/summary"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

// decodeJSON reads a single JSON document of at most maxBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

// flexAmount accepts a JSON number or a numeric string, since form-based
// clients post amounts as text.
type flexAmount float64

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := parseAmount(s)
		if err != nil {
			return err
		}
		*a = flexAmount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("amount must be a number: %w", err)
	}
	*a = flexAmount(f)
	return nil
}

func parseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	// ParseFloat accepts "NaN" and "Inf", which no amount can be.
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	return f, nil
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (rr registerRequest) email() string { return strings.TrimSpace(rr.Email) }

func (lr loginRequest) email() string { return strings.TrimSpace(lr.Email) }

type recordRequest struct {
	Email    string     `json:"email"`
	Date     string     `json:"date"`
	Category string     `json:"category"`
	Amount   flexAmount `json:"amount"`
	Notes    string     `json:"notes"`
}

func (rr recordRequest) record() core.Record {
	return core.Record{
		Email:    strings.TrimSpace(rr.Email),
		Date:     strings.TrimSpace(rr.Date),
		Category: strings.TrimSpace(rr.Category),
		Amount:   float64(rr.Amount),
		Notes:    rr.Notes,
	}
}

type budgetRequest struct {
	Email  string     `json:"email"`
	Budget flexAmount `json:"budget"`
}

func (br budgetRequest) email() string { return strings.TrimSpace(br.Email) }

// pathParam returns the decoded chi URL parameter. chi matches on the raw
// path when one is set, which leaves escapes such as %2F in the value.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// emailParam returns the email path segment trimmed the same way request
// bodies are, so a user resolves identically on every route.
func emailParam(r *http.Request) string {
	return strings.TrimSpace(pathParam(r, "email"))
}

func recordFilterFromQuery(q url.Values) summary.RecordFilter {
	return summary.RecordFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Date:     strings.TrimSpace(q.Get("date")),
		Price:    strings.TrimSpace(q.Get("price")),
		Sort:     strings.TrimSpace(q.Get("sort")),
	}
}

func periodFilterFromQuery(q url.Values) summary.PeriodFilter {
	return summary.PeriodFilter{
		Type:  strings.TrimSpace(q.Get("filterType")),
		Value: strings.TrimSpace(q.Get("filterValue")),
	}
}
