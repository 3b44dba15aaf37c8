package expiry

import (
	"math"
	"time"
)

// DateLayout is the storage format of purchase and expiry dates. Dates in this
// layout sort lexicographically in chronological order.
const DateLayout = "2006-01-02"

// WarningDays is the inclusive upper bound of the warning urgency band.
const WarningDays = 3

type Urgency string

const (
	UrgencyExpired Urgency = "expired"
	UrgencyWarning Urgency = "warning"
	UrgencyOK      Urgency = "ok"
)

// ParseDate parses a YYYY-MM-DD string as a calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ValidDate reports whether s is a well-formed calendar date.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// FormatDate formats the calendar date of t, ignoring its time of day.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// EstimateExpiryDate adds the shelf life of category to purchaseDate.
// A malformed purchaseDate is returned unchanged.
func EstimateExpiryDate(category Category, purchaseDate string) string {
	d, err := ParseDate(purchaseDate)
	if err != nil {
		return purchaseDate
	}
	return FormatDate(d.AddDate(0, 0, ShelfLifeDays(category)))
}

// DaysUntilExpiry counts calendar days from today to expiryDate. The result is
// negative once the date has passed and zero on the expiry day itself.
// A malformed expiryDate counts as due today.
func DaysUntilExpiry(expiryDate string, today time.Time) int {
	expiry, err := ParseDate(expiryDate)
	if err != nil {
		return 0
	}
	return DaysBetween(today, expiry)
}

// DaysBetween returns ceil((to - from) / 24h) after truncating both to their
// calendar dates in their own locations.
func DaysBetween(from, to time.Time) int {
	diff := midnightUTC(to).Sub(midnightUTC(from))
	return int(math.Ceil(diff.Hours() / 24))
}

// ClassifyUrgency buckets expiryDate relative to today.
func ClassifyUrgency(expiryDate string, today time.Time) Urgency {
	return UrgencyForDays(DaysUntilExpiry(expiryDate, today))
}

func UrgencyForDays(days int) Urgency {
	switch {
	case days < 0:
		return UrgencyExpired
	case days <= WarningDays:
		return UrgencyWarning
	default:
		return UrgencyOK
	}
}

// midnightUTC keeps the wall-clock date of t and drops its zone.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
