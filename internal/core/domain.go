package core

import (
	"errors"
	"math"
	"strings"
)

// Categories offered to users when recording an expense.
const (
	CategoryFood        = "food"
	CategoryEducation   = "education"
	CategoryGrocery     = "grocery"
	CategoryAccessories = "accessories"
	CategoryGoingOut    = "going out"
	CategoryGifts       = "gifts"
	CategoryOthers      = "others"
)

type (
	User struct {
		ID       string `json:"_id" bson:"_id"`
		Username string `json:"username" bson:"username"`
		Email    string `json:"email" bson:"email"`
		Password string `json:"password" bson:"password"` // bcrypt hash
	}

	// Record is a single dated expense owned by the user identified by Email.
	Record struct {
		ID       string  `json:"_id" bson:"_id"`
		Email    string  `json:"email" bson:"email"`
		Date     string  `json:"date" bson:"date"` // dd-mm-yyyy
		Category string  `json:"category" bson:"category"`
		Amount   float64 `json:"amount" bson:"amount"`
		Notes    string  `json:"notes" bson:"notes"`
	}

	// Budget is the monthly spending threshold of a user. At most one per email.
	Budget struct {
		ID     string  `json:"_id" bson:"_id"`
		Email  string  `json:"email" bson:"email"`
		Budget float64 `json:"budget" bson:"budget"`
	}
)

var (
	ErrEmptyEmail      = errors.New("empty email")
	ErrEmptyPassword   = errors.New("empty password")
	ErrEmptyDate       = errors.New("empty date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidBudget   = errors.New("invalid budget")
	ErrInvalidDate     = errors.New("invalid date, expected dd-mm-yyyy")
	ErrUnknownCategory = errors.New("unknown category")
)

// Categories returns the closed set of expense categories in display order.
func Categories() []string {
	return []string{
		CategoryFood,
		CategoryEducation,
		CategoryGrocery,
		CategoryAccessories,
		CategoryGoingOut,
		CategoryGifts,
		CategoryOthers,
	}
}

// IsKnownCategory reports whether c belongs to the category set.
func IsKnownCategory(c string) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Validate checks the fields a record needs to be stored. The date is not
// parsed here: stored dates are free-form and only interpreted when aggregating.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmptyEmail
	}
	if strings.TrimSpace(r.Date) == "" {
		return ErrEmptyDate
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.Amount < 0 || !finite(r.Amount) {
		return ErrInvalidAmount
	}
	return nil
}

// Matches reports whether o has the same (email, date, category, amount, notes)
// tuple as r. Identifiers are ignored.
func (r Record) Matches(o Record) bool {
	return r.Email == o.Email &&
		r.Date == o.Date &&
		r.Category == o.Category &&
		r.Amount == o.Amount &&
		r.Notes == o.Notes
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Email) == "" {
		return ErrEmptyEmail
	}
	if b.Budget < 0 || !finite(b.Budget) {
		return ErrInvalidBudget
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
