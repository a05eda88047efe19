package cargo

import (
	"strings"
	"time"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// layouts carrying their own offset
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

// layouts read as wall-clock time in the caller's location
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseETA parses an ETA string into loc. Strings with an explicit offset are converted
// into loc, strings without one are taken as wall-clock time in loc.
func ParseETA(eta string, loc *time.Location) (time.Time, bool) {
	eta = strings.TrimSpace(eta)
	if eta == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, eta); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, eta, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsETAUrgent reports whether the ETA should be flagged at now: the ETA's calendar day has
// started (midnight in now's location) and the cargo is not Completed.
// An unparsable ETA is never urgent.
func IsETAUrgent(r models.CargoRecord, now time.Time) bool {
	if r.IsCompleted() {
		return false
	}
	eta, ok := ParseETA(r.ETA, now.Location())
	if !ok {
		return false
	}
	return !now.Before(StartOfDay(eta))
}

// StartOfDay returns 00:00:00.000 of t's calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
