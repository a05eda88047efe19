package cargo

import (
	"fmt"
	"strings"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// StatusChoice is the value of the status selector on the cargo form.
type StatusChoice string

const (
	StatusChoiceCompleted StatusChoice = StatusChoice(models.StatusCompleted)
	StatusChoiceOther     StatusChoice = "Other (specify)"
)

// ResolveStatus turns the selector plus the free-text box into the stored status.
// Anything but Completed means the custom text is used, and it must not be blank.
func ResolveStatus(choice StatusChoice, custom string) (string, error) {
	if choice == StatusChoiceCompleted {
		return models.StatusCompleted, nil
	}
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return "", fmt.Errorf("%w: %w", ErrCustomStatusRequired, &ValidationError{Fields: []Field{FieldCustomStatus}})
	}
	return custom, nil
}

// ChoiceFor is the inverse of ResolveStatus, used to pre-fill the form when editing.
func ChoiceFor(status string) (StatusChoice, string) {
	if status == models.StatusCompleted {
		return StatusChoiceCompleted, ""
	}
	return StatusChoiceOther, status
}

// AddHouseAirWaybill appends a trimmed HAWB#. Blank entries are ignored.
func AddHouseAirWaybill(hawbs []string, entry string) []string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return hawbs
	}
	out := make([]string, 0, len(hawbs)+1)
	out = append(out, hawbs...)
	return append(out, entry)
}

// RemoveHouseAirWaybill drops the entry at index i. An out of range index changes nothing.
func RemoveHouseAirWaybill(hawbs []string, i int) []string {
	if i < 0 || i >= len(hawbs) {
		return hawbs
	}
	out := make([]string, 0, len(hawbs)-1)
	out = append(out, hawbs[:i]...)
	return append(out, hawbs[i+1:]...)
}
