package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
)

// Op is a user-visible operation against the store.
type Op string

const (
	OpLoad   Op = "load"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

const (
	msgNotReady      = "Database not ready or user not authenticated."
	msgConfirmDelete = "Are you sure you want to delete this cargo item?"
	msgNoMatches     = "No matching cargo found for %q."
	msgNoItems       = "No cargo items yet. Add one to get started!"
	msgFillRequired  = "Please fill in all required fields, including at least one HAWB#."
	msgCustomStatus  = "Please specify the custom status."
)

// ErrNotReady means the store or the user identity is not available yet.
var ErrNotReady = errors.New("store not ready or user not authenticated")

// SuccessMessage is shown after op completes.
func (op Op) SuccessMessage() string {
	switch op {
	case OpCreate:
		return "Cargo added successfully!"
	case OpUpdate:
		return "Cargo updated successfully!"
	case OpDelete:
		return "Cargo deleted successfully!"
	}
	return ""
}

// FailureMessage turns an error from op into something a user can act on.
// Each op gets its own wording so failures are never confused with each other.
func (op Op) FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotReady) {
		return msgNotReady
	}
	if errors.Is(err, cargo.ErrCustomStatusRequired) {
		return msgCustomStatus
	}
	var verr *cargo.ValidationError
	if errors.As(err, &verr) {
		return msgFillRequired
	}

	switch op {
	case OpLoad:
		return fmt.Sprintf("Failed to load cargo items: %v", err)
	case OpCreate:
		return fmt.Sprintf("Error adding cargo: %v", err)
	case OpUpdate:
		return fmt.Sprintf("Error updating cargo: %v", err)
	case OpDelete:
		return fmt.Sprintf("Error deleting cargo: %v", err)
	}
	return err.Error()
}

// EmptyListMessage is shown when no records are visible.
func EmptyListMessage(query string) string {
	if query = strings.TrimSpace(query); query != "" {
		return fmt.Sprintf(msgNoMatches, query)
	}
	return msgNoItems
}
