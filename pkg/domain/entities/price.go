package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
)

// PriceMonth is a calendar month truncated to its first day
type PriceMonth struct {
	Year  int
	Month time.Month
}

const priceMonthLayout = "2006-01-02"

// MonthOf returns the price month containing t
func MonthOf(t time.Time) PriceMonth {
	return PriceMonth{Year: t.Year(), Month: t.Month()}
}

// ParsePriceMonth accepts "YYYY-MM" or any "YYYY-MM-DD" and truncates to the month
func ParsePriceMonth(s string) (PriceMonth, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{priceMonthLayout, "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return PriceMonth{}, bomerr.Wrap(bomerr.ErrInvalidPriceMonth, "",
		fmt.Errorf("cannot parse price month %q", s))
}

// String renders the month as YYYY-MM-01, the storage key format
func (m PriceMonth) String() string {
	return m.Time().Format(priceMonthLayout)
}

// Time returns midnight UTC on the first day of the month
func (m PriceMonth) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the month is unset
func (m PriceMonth) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// MarshalText implements encoding.TextMarshaler
func (m PriceMonth) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *PriceMonth) UnmarshalText(text []byte) error {
	parsed, err := ParsePriceMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// PriceHistoryEntry is the unit price of an item effective for one month
type PriceHistoryEntry struct {
	ID        int64           `json:"price_history_id"`
	ItemID    ItemID          `json:"item_id"`
	Month     PriceMonth      `json:"price_month"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewerThan reports whether e should win over other for the same month.
// Later creation wins; equal timestamps fall back to the higher id.
func (e *PriceHistoryEntry) NewerThan(other *PriceHistoryEntry) bool {
	if other == nil {
		return true
	}
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.After(other.CreatedAt)
	}
	return e.ID > other.ID
}
