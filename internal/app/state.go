// Package app holds the view state of the cargo list and the reducer that moves it.
// Nothing here does I/O: callers feed store snapshots and user input in as actions and
// render State.Visible with whatever clock they have.
package app

import (
	"errors"
	"time"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// View is the screen currently shown.
type View string

const (
	ViewList View = "list"
	ViewAdd  View = "add"
	ViewEdit View = "edit"
)

// MessageKind decides how a message box is rendered.
type MessageKind string

const (
	MessageNone    MessageKind = ""
	MessageInfo    MessageKind = "info"
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
	MessageConfirm MessageKind = "confirm"
)

// Message is the single message box. PendingDeleteID is set while a delete awaits confirmation.
type Message struct {
	Text            string      `json:"text,omitempty"`
	Kind            MessageKind `json:"kind,omitempty"`
	PendingDeleteID string      `json:"pendingDeleteId,omitempty"`
}

// State is everything the cargo screen needs.
type State struct {
	View    View                 `json:"view"`
	Query   string               `json:"query"`
	Field   cargo.Field          `json:"field,omitempty"`
	Records []models.CargoRecord `json:"-"`
	Editing *models.CargoRecord  `json:"editing,omitempty"`
	Message Message              `json:"message"`
	Loading bool                 `json:"loading"`
	UserID  string               `json:"userId,omitempty"`
}

var errMissingRecord = errors.New("cannot update cargo, missing id")

// Initial is the state before auth and the first snapshot arrive.
func Initial() State {
	return State{View: ViewList, Loading: true}
}

// Action is an input to Reduce.
type Action interface {
	isAction()
}

// AuthResolved carries the user identity, empty if sign-in failed.
type AuthResolved struct{ UserID string }

// SnapshotReceived carries a full raw snapshot from the store.
type SnapshotReceived struct{ Records []models.RawRecord }

// SnapshotFailed reports a broken subscription.
type SnapshotFailed struct{ Err error }

type SearchChanged struct{ Query string }

// FilterChanged restricts the search to one field; empty means all fields.
type FilterChanged struct{ Field cargo.Field }

type ShowList struct{}

type ShowAdd struct{}

type ShowEdit struct{ ID string }

type WriteStarted struct{ Op Op }

type WriteSucceeded struct{ Op Op }

type WriteFailed struct {
	Op  Op
	Err error
}

// DeleteRequested asks for confirmation before deleting ID.
type DeleteRequested struct{ ID string }

type DeleteConfirmed struct{}

type MessageDismissed struct{}

func (AuthResolved) isAction()     {}
func (SnapshotReceived) isAction() {}
func (SnapshotFailed) isAction()   {}
func (SearchChanged) isAction()    {}
func (FilterChanged) isAction()    {}
func (ShowList) isAction()         {}
func (ShowAdd) isAction()          {}
func (ShowEdit) isAction()         {}
func (WriteStarted) isAction()     {}
func (WriteSucceeded) isAction()   {}
func (WriteFailed) isAction()      {}
func (DeleteRequested) isAction()  {}
func (DeleteConfirmed) isAction()  {}
func (MessageDismissed) isAction() {}

// Reduce returns the state after applying a. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AuthResolved:
		s.UserID = a.UserID
		if a.UserID == "" {
			s.Loading = false
		}

	case SnapshotReceived:
		s.Records = cargo.Prepare(a.Records)
		s.Loading = false
		if s.Editing != nil {
			if r, ok := find(s.Records, s.Editing.ID); ok {
				s.Editing = &r
			}
		}

	case SnapshotFailed:
		s.Loading = false
		s.Message = Message{Text: OpLoad.FailureMessage(a.Err), Kind: MessageError}

	case SearchChanged:
		s.Query = a.Query

	case FilterChanged:
		if a.Field != "" && !a.Field.Known() {
			a.Field = ""
		}
		s.Field = a.Field

	case ShowList:
		s.View = ViewList
		s.Editing = nil

	case ShowAdd:
		s.View = ViewAdd
		s.Editing = nil

	case ShowEdit:
		r, ok := find(s.Records, a.ID)
		if !ok {
			s.Message = Message{Text: OpUpdate.FailureMessage(errMissingRecord), Kind: MessageError}
			break
		}
		s.View = ViewEdit
		s.Editing = &r

	case WriteStarted:
		s.Loading = true

	case WriteSucceeded:
		s.Loading = false
		s.Message = Message{Text: a.Op.SuccessMessage(), Kind: MessageSuccess}
		if a.Op == OpCreate || a.Op == OpUpdate {
			s.View = ViewList
			s.Editing = nil
		}

	case WriteFailed:
		s.Loading = false
		s.Message = Message{Text: a.Op.FailureMessage(a.Err), Kind: MessageError}

	case DeleteRequested:
		s.Message = Message{Text: msgConfirmDelete, Kind: MessageConfirm, PendingDeleteID: a.ID}

	case DeleteConfirmed:
		if s.Message.Kind == MessageConfirm {
			s.Message = Message{}
			s.Loading = true
		}

	case MessageDismissed:
		s.Message = Message{}
	}
	return s
}

// PendingDelete returns the id waiting for confirmation, if any.
func (s State) PendingDelete() (string, bool) {
	if s.Message.Kind != MessageConfirm || s.Message.PendingDeleteID == "" {
		return "", false
	}
	return s.Message.PendingDeleteID, true
}

func find(records []models.CargoRecord, id string) (models.CargoRecord, bool) {
	if id == "" {
		return models.CargoRecord{}, false
	}
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return models.CargoRecord{}, false
}

// ListItem is one rendered row.
type ListItem struct {
	Record     models.CargoRecord `json:"record"`
	Urgent     bool               `json:"urgent"` //ETA day reached and not completed
	ETADisplay string             `json:"etaDisplay"`
	Badge      cargo.Badge        `json:"badge"`
}

// ListView is the rendered list.
type ListView struct {
	Items []ListItem `json:"items"`
	Empty string     `json:"empty,omitempty"`
}

// Visible filters the records with the current query and evaluates alerts at now.
func (s State) Visible(now time.Time) ListView {
	return BuildListView(s.Records, s.Query, s.Field, now)
}

// BuildListView runs the filter and alert pipeline over already prepared records.
func BuildListView(records []models.CargoRecord, query string, field cargo.Field, now time.Time) ListView {
	filtered := cargo.Filter(records, query, field)
	view := ListView{Items: make([]ListItem, 0, len(filtered))}
	for _, r := range filtered {
		view.Items = append(view.Items, ListItem{
			Record:     r,
			Urgent:     cargo.IsETAUrgent(r, now),
			ETADisplay: cargo.FormatETA(r.ETA, now.Location()),
			Badge:      cargo.StatusBadge(r.CurrentStatus),
		})
	}
	if len(view.Items) == 0 {
		view.Empty = EmptyListMessage(query)
	}
	return view
}
