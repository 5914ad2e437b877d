// internal/domain/holiday/holiday.go
package holiday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a day/month pair is outside the accepted ranges.
var ErrInvalidDate = fmt.Errorf("date must be in DD-MM format with day 1-31 and month 1-12")

// Holiday is one recurring yearly greeting. Corresponds to the 'holidays' table.
type Holiday struct {
	ID              int64
	OwnerTelegramID int64 // Account whose session delivers the greeting
	Name            string
	Day             int      // 1-31, no per-month cross-check
	Month           int      // 1-12
	Recipients      []string // Delivered in this order
	Message         string
	CreatedAt       time.Time
}

// Key returns the calendar key the holiday fires on.
func (h *Holiday) Key() DateKey {
	return DateKey{Day: h.Day, Month: h.Month}
}

// DateKey identifies a calendar day independent of the year.
type DateKey struct {
	Day   int
	Month int
}

// KeyOf returns the DateKey of t in t's location.
func KeyOf(t time.Time) DateKey {
	return DateKey{Day: t.Day(), Month: int(t.Month())}
}

// Validate checks the plain range constraints the schema enforces.
// 31-04 passes on purpose: the database CHECKs are range-only as well.
func (k DateKey) Validate() error {
	if k.Day < 1 || k.Day > 31 || k.Month < 1 || k.Month > 12 {
		return ErrInvalidDate
	}
	return nil
}

// String formats the key as DD-MM.
func (k DateKey) String() string {
	return fmt.Sprintf("%02d-%02d", k.Day, k.Month)
}

// ParseDateKey parses "DD-MM" (e.g. 14-02).
func ParseDateKey(s string) (DateKey, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return DateKey{}, ErrInvalidDate
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return DateKey{}, ErrInvalidDate
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return DateKey{}, ErrInvalidDate
	}
	k := DateKey{Day: day, Month: month}
	if err := k.Validate(); err != nil {
		return DateKey{}, err
	}
	return k, nil
}
