package core

import (
	"errors"
	"strings"
	"time"
)

// RecordKind distinguishes the three monetary record collections.
type RecordKind string

const (
	KindIncome   RecordKind = "income"
	KindExpense  RecordKind = "expense"
	KindPurchase RecordKind = "purchase"
)

type (
	// Date is a calendar date at day granularity, UTC.
	Date struct {
		time.Time
	}

	// Record is a dated monetary record attributed to a household and,
	// optionally, to one of its members. Member is empty when the record
	// is unattributed.
	Record struct {
		ID          int64
		Household   string
		Kind        RecordKind
		Description string
		Amount      Amount
		Date        Date
		Member      string
	}

	// FrequencyEntry is a usage-ranked catalog row for a recurring item
	// name. LastAmount is nil until a usage supplies a price.
	FrequencyEntry struct {
		Name       string
		Category   string
		UsageCount int64
		LastAmount *Amount
		UpdatedAt  time.Time
	}

	// ShoppingItem is a shopping list row. Price is nil while the item has
	// no known price; Comprado flips when the item is bought.
	ShoppingItem struct {
		ID        int64
		Household string
		Name      string
		Price     *Amount
		Comprado  bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyHousehold   = errors.New("empty household")
	ErrEmptyName        = errors.New("empty name")
	ErrUnknownKind      = errors.New("unknown record kind")
	ErrPriceNotFound    = errors.New("price not found")
)

// NewDate creates a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseISODate parses a YYYY-MM-DD string, the persisted date form.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO renders the date in the persisted YYYY-MM-DD form.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// Truncated returns the date with any time-of-day component dropped.
func (d Date) Truncated() Date {
	y, m, day := d.Date()
	return NewDate(y, m, day)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (k RecordKind) Validate() error {
	switch k {
	case KindIncome, KindExpense, KindPurchase:
		return nil
	default:
		return ErrUnknownKind
	}
}

// Validate checks a user-submitted record. Amounts entered through the
// UI are strictly positive; deficits only ever appear in derived
// balances, never in stored records.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Household) == "" {
		return ErrEmptyHousehold
	}
	if err := r.Kind.Validate(); err != nil {
		return err
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i ShoppingItem) Validate() error {
	if strings.TrimSpace(i.Household) == "" {
		return ErrEmptyHousehold
	}
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if len(i.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if i.Price != nil && *i.Price <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
