package models

import "time"

// Change event types published after every successful write.
const (
	EventCargoCreated = "cargo.created"
	EventCargoUpdated = "cargo.updated"
	EventCargoDeleted = "cargo.deleted"
)

// CargoEvent is the payload of a change event. Record is nil for deletes.
type CargoEvent struct {
	Event   string       `json:"event"`
	ID      string       `json:"id"`
	Payload *CargoRecord `json:"payload,omitempty"`
	At      time.Time    `json:"at"`
}
