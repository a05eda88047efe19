package cargo

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// Filter returns the records matching query, in input order. Records are not modified.
//
// Matching is a case-insensitive substring test. With a known field only that field is
// searched and records whose field is empty are dropped. With an empty or unknown field
// every field is searched. A blank query returns every record.
func Filter(records []models.CargoRecord, query string, field Field) []models.CargoRecord {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]models.CargoRecord(nil), records...)
	}

	// a Caser keeps state, so each call gets its own
	fold := cases.Fold()
	needle := fold.String(query)

	var out []models.CargoRecord
	for _, r := range records {
		if matches(fold, r, needle, field) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record passes Filter.
func Matches(r models.CargoRecord, query string, field Field) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	fold := cases.Fold()
	return matches(fold, r, fold.String(query), field)
}

func matches(fold cases.Caser, r models.CargoRecord, needle string, field Field) bool {
	if field.Known() {
		value := field.Value(r)
		if value == "" {
			return false
		}
		return strings.Contains(fold.String(value), needle)
	}

	for _, f := range Fields {
		if strings.Contains(fold.String(f.Value(r)), needle) {
			return true
		}
	}
	return false
}
