package app

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

func snapshot() SnapshotReceived {
	return SnapshotReceived{Records: []models.RawRecord{
		{
			"id":               "b",
			"consignee":        "Blue Freight",
			"consolNumber":     "CONSOL-2",
			"houseAirWaybills": []any{"H2"},
			"eta":              "2024-06-10T08:00",
			"currentStatus":    "In Transit",
		},
		{
			"id":            "a",
			"name":          "Acme",
			"consolNumber":  "C-1",
			"status":        "H1",
			"eta":           "2024-06-10T08:00",
			"currentStatus": "Completed",
		},
	}}
}

func reduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func TestReduceSnapshot(t *testing.T) {
	s := reduceAll(Initial(), AuthResolved{UserID: "anon-1"}, snapshot())

	if s.Loading {
		t.Error("expected loading to stop after snapshot")
	}
	if s.UserID != "anon-1" {
		t.Errorf("expected user id anon-1, got %q", s.UserID)
	}
	if len(s.Records) != 2 || s.Records[0].ID != "a" {
		t.Fatalf("expected records sorted by consignee, got %+v", s.Records)
	}
	if diff := cmp.Diff([]string{"H1"}, s.Records[0].HouseAirWaybills); diff != "" {
		t.Errorf("legacy status not normalized (-want +got):\n%s", diff)
	}
}

func TestReduceAuthFailureStopsLoading(t *testing.T) {
	s := Reduce(Initial(), AuthResolved{})
	if s.Loading {
		t.Error("expected loading to stop when no user could be resolved")
	}
}

func TestVisible(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 1, 0, time.UTC)
	s := reduceAll(Initial(), snapshot(), SearchChanged{Query: "consol"}, FilterChanged{Field: cargo.FieldConsolNumber})

	view := s.Visible(now)
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(view.Items))
	}
	item := view.Items[0]
	if item.Record.ID != "b" || !item.Urgent {
		t.Errorf("expected urgent item b, got %+v", item)
	}
	if item.ETADisplay != "Jun 10, 2024, 8:00 AM" {
		t.Errorf("unexpected eta display %q", item.ETADisplay)
	}

	s = Reduce(s, FilterChanged{Field: ""})
	s = Reduce(s, SearchChanged{Query: ""})
	view = s.Visible(now)
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(view.Items))
	}
	if view.Items[0].Urgent {
		t.Error("completed cargo must not be urgent")
	}
}

func TestVisibleEmptyMessages(t *testing.T) {
	now := time.Now()
	if got := Initial().Visible(now).Empty; got != "No cargo items yet. Add one to get started!" {
		t.Errorf("unexpected empty text %q", got)
	}
	s := reduceAll(Initial(), snapshot(), SearchChanged{Query: "zzz"})
	if got := s.Visible(now).Empty; got != `No matching cargo found for "zzz".` {
		t.Errorf("unexpected no-match text %q", got)
	}
}

func TestReduceUnknownFilterFieldClears(t *testing.T) {
	s := Reduce(Initial(), FilterChanged{Field: "bogus"})
	if s.Field != "" {
		t.Errorf("expected unknown field to clear the filter, got %q", s.Field)
	}
}

func TestReduceViews(t *testing.T) {
	s := reduceAll(Initial(), snapshot(), ShowEdit{ID: "b"})
	if s.View != ViewEdit || s.Editing == nil || s.Editing.ID != "b" {
		t.Fatalf("expected edit view for b, got %+v", s)
	}

	s = Reduce(s, ShowEdit{ID: "missing"})
	if s.Message.Kind != MessageError {
		t.Errorf("expected error message for unknown record, got %+v", s.Message)
	}

	s = reduceAll(s, MessageDismissed{}, ShowAdd{})
	if s.View != ViewAdd || s.Editing != nil {
		t.Errorf("expected add view, got %+v", s)
	}
}

func TestReduceWriteLifecycle(t *testing.T) {
	s := reduceAll(Initial(), snapshot(), ShowAdd{}, WriteStarted{Op: OpCreate})
	if !s.Loading {
		t.Fatal("expected loading during write")
	}

	s = Reduce(s, WriteSucceeded{Op: OpCreate})
	if s.Loading || s.View != ViewList {
		t.Errorf("expected list view after create, got %+v", s)
	}
	if s.Message.Text != "Cargo added successfully!" || s.Message.Kind != MessageSuccess {
		t.Errorf("unexpected message %+v", s.Message)
	}

	s = Reduce(s, WriteFailed{Op: OpUpdate, Err: errors.New("permission denied")})
	if s.Message.Text != "Error updating cargo: permission denied" || s.Message.Kind != MessageError {
		t.Errorf("unexpected failure message %+v", s.Message)
	}
}

func TestReduceDeleteConfirmation(t *testing.T) {
	s := reduceAll(Initial(), snapshot(), DeleteRequested{ID: "a"})
	id, ok := s.PendingDelete()
	if !ok || id != "a" {
		t.Fatalf("expected pending delete of a, got %q %v", id, ok)
	}

	cancelled := Reduce(s, MessageDismissed{})
	if _, ok := cancelled.PendingDelete(); ok {
		t.Error("dismissing must cancel the delete")
	}

	confirmed := Reduce(s, DeleteConfirmed{})
	if !confirmed.Loading || confirmed.Message.Kind != MessageNone {
		t.Errorf("expected loading with closed box, got %+v", confirmed)
	}

	// confirming without a pending request does nothing
	if again := Reduce(confirmed, DeleteConfirmed{}); again.Message != confirmed.Message {
		t.Errorf("unexpected change %+v", again)
	}
}

func TestFailureMessages(t *testing.T) {
	verr := cargo.Validate(models.CargoRecord{})
	tests := []struct {
		op   Op
		err  error
		want string
	}{
		{OpCreate, errors.New("offline"), "Error adding cargo: offline"},
		{OpDelete, errors.New("not found"), "Error deleting cargo: not found"},
		{OpLoad, errors.New("denied"), "Failed to load cargo items: denied"},
		{OpCreate, verr, "Please fill in all required fields, including at least one HAWB#."},
		{OpUpdate, ErrNotReady, "Database not ready or user not authenticated."},
		{OpCreate, nil, ""},
	}
	for _, tt := range tests {
		if got := tt.op.FailureMessage(tt.err); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.op, got, tt.want)
		}
	}

	_, err := cargo.ResolveStatus(cargo.StatusChoiceOther, "")
	if got := OpCreate.FailureMessage(err); got != "Please specify the custom status." {
		t.Errorf("custom status: got %q", got)
	}
}
