package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/app"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// WebSocket message types of the live cargo view
const (
	// Client -> Server messages
	MsgTypeSearch  = "search"  //{"type":"search","query":"..."}
	MsgTypeFilter  = "filter"  //{"type":"filter","field":"consignee"}, empty field searches all
	MsgTypeDelete  = "delete"  //{"type":"delete","id":"..."} asks for confirmation
	MsgTypeConfirm = "confirm" //confirms the pending delete
	MsgTypeDismiss = "dismiss" //closes the message box, cancelling a pending delete
	MsgTypePing    = "ping"

	// Server -> Client messages
	MsgTypeView  = "view"
	MsgTypePong  = "pong"
	MsgTypeError = "error"
)

// ClientMessage is a frame sent by the browser.
type ClientMessage struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
	Field string `json:"field,omitempty"`
	ID    string `json:"id,omitempty"`
}

// ViewMessage is pushed after every state change and on every refresh tick.
type ViewMessage struct {
	Type      string       `json:"type"`
	State     app.State    `json:"state"`
	View      app.ListView `json:"view"`
	Timestamp int64        `json:"timestamp"`
}

type wsErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// StreamHandler serves the live cargo list over WebSocket. Each connection owns an
// app.State; snapshots, client frames and refresh ticks all go through app.Reduce.
type StreamHandler struct {
	service       CargoService
	log           *zap.Logger
	location      *time.Location
	now           func() time.Time
	refresh       time.Duration
	defaultUserID string
	upgrader      websocket.Upgrader
}

func NewStreamHandler(deps *Dependencies) *StreamHandler {
	return &StreamHandler{
		service:       deps.Service,
		log:           deps.Log,
		location:      deps.Location,
		now:           deps.Now,
		refresh:       deps.Refresh,
		defaultUserID: deps.DefaultUserID,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// snapshotEvent is a subscription callback result handed to the session loop.
type snapshotEvent struct {
	records []models.RawRecord
	err     error
}

// HandleStream upgrades the connection and runs the session until either side closes it.
func (h *StreamHandler) HandleStream(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	userID := c.Request().Header.Get(UserHeader)
	if userID == "" {
		userID = h.defaultUserID
	}
	h.log.Debug("cargo stream connected", zap.String("user", userID))

	snapshots := make(chan snapshotEvent, 1)
	deliver := func(ev snapshotEvent) {
		// latest wins: drop an undelivered older snapshot
		for {
			select {
			case snapshots <- ev:
				return
			default:
			}
			select {
			case <-snapshots:
			default:
			}
		}
	}

	state := app.Reduce(app.Initial(), app.AuthResolved{UserID: userID})
	if userID != "" {
		unsubscribe, err := h.service.Subscribe(ctx,
			func(records []models.RawRecord) { deliver(snapshotEvent{records: records}) },
			func(err error) { deliver(snapshotEvent{err: err}) },
		)
		if err != nil {
			state = app.Reduce(state, app.SnapshotFailed{Err: err})
		} else {
			defer unsubscribe()
		}
	}

	incoming := make(chan ClientMessage)
	go h.readLoop(ctx, cancel, ws, incoming)

	ticker := time.NewTicker(h.refresh)
	defer ticker.Stop()

	if err := h.writeView(ws, state); err != nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("cargo stream disconnected", zap.String("user", userID))
			return nil
		case ev := <-snapshots:
			if ev.err != nil {
				state = app.Reduce(state, app.SnapshotFailed{Err: ev.err})
			} else {
				state = app.Reduce(state, app.SnapshotReceived{Records: ev.records})
			}
		case msg := <-incoming:
			if msg.Type == MsgTypePing {
				if err := ws.WriteJSON(map[string]any{"type": MsgTypePong, "timestamp": h.now().UnixMilli()}); err != nil {
					return nil
				}
				continue
			}
			var ok bool
			state, ok = h.apply(ctx, state, msg)
			if !ok {
				if err := ws.WriteJSON(wsErrorMessage{Type: MsgTypeError, Message: "Unknown message type: " + msg.Type}); err != nil {
					return nil
				}
				continue
			}
		case <-ticker.C:
		}
		if err := h.writeView(ws, state); err != nil {
			return nil
		}
	}
}

// apply runs a client frame through the reducer. Deletes are written here, between
// DeleteConfirmed and WriteSucceeded/WriteFailed.
func (h *StreamHandler) apply(ctx context.Context, state app.State, msg ClientMessage) (app.State, bool) {
	switch msg.Type {
	case MsgTypeSearch:
		return app.Reduce(state, app.SearchChanged{Query: msg.Query}), true
	case MsgTypeFilter:
		field, _ := cargo.ParseField(msg.Field)
		return app.Reduce(state, app.FilterChanged{Field: field}), true
	case MsgTypeDelete:
		return app.Reduce(state, app.DeleteRequested{ID: msg.ID}), true
	case MsgTypeDismiss:
		return app.Reduce(state, app.MessageDismissed{}), true
	case MsgTypeConfirm:
		id, pending := state.PendingDelete()
		if !pending {
			return state, true
		}
		state = app.Reduce(state, app.DeleteConfirmed{})
		if state.UserID == "" {
			return app.Reduce(state, app.WriteFailed{Op: app.OpDelete, Err: app.ErrNotReady}), true
		}
		if err := h.service.Delete(ctx, id); err != nil {
			return app.Reduce(state, app.WriteFailed{Op: app.OpDelete, Err: err}), true
		}
		return app.Reduce(state, app.WriteSucceeded{Op: app.OpDelete}), true
	}
	return state, false
}

func (h *StreamHandler) readLoop(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, out chan<- ClientMessage) {
	defer cancel()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("cargo stream read failed", zap.Error(err))
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = ClientMessage{Type: "invalid"}
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (h *StreamHandler) writeView(ws *websocket.Conn, state app.State) error {
	now := h.now().In(h.location)
	err := ws.WriteJSON(ViewMessage{
		Type:      MsgTypeView,
		State:     state,
		View:      state.Visible(now),
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		h.log.Debug("cargo stream write failed", zap.Error(err))
	}
	return err
}
