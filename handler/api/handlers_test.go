package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/app"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/service"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/store"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestDeps(t *testing.T, defaultUser string) (*Dependencies, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore(nil)
	t.Cleanup(func() { st.Close() })
	svc := service.NewCargoService(st, nil, nil).WithClock(func() time.Time { return testNow })
	t.Cleanup(svc.Wait)
	return &Dependencies{
		Service:       svc,
		Location:      time.UTC,
		Now:           func() time.Time { return testNow },
		DefaultUserID: defaultUser,
		Refresh:       time.Hour,
		Version:       "test",
	}, st
}

func validBody() map[string]any {
	return map[string]any{
		"consignee":        "Acme",
		"consolNumber":     "C-1",
		"shipmentNumber":   "S-1",
		"masterAirWaybill": "M-1",
		"houseAirWaybills": []string{" H1 ", ""},
		"kllNumber":        "K-1",
		"preAlertDate":     "2024-06-01",
		"eta":              "2024-06-10T08:00",
		"statusChoice":     "Other (specify)",
		"customStatus":     "In Transit",
	}
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCargoHandler_HandleCreate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(map[string]any)
		user       string
		wantStatus int
		wantErr    bool
		errCode    string
		errMessage string
	}{
		{
			name:       "valid cargo",
			user:       "user-1",
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing house air waybill",
			mutate:     func(b map[string]any) { b["houseAirWaybills"] = []string{"  "} },
			user:       "user-1",
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
			errMessage: "Please fill in all required fields, including at least one HAWB#.",
		},
		{
			name:       "blank custom status",
			mutate:     func(b map[string]any) { b["customStatus"] = " " },
			user:       "user-1",
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
			errMessage: "Please specify the custom status.",
		},
		{
			name:       "no identity",
			wantErr:    true,
			errCode:    "NOT_AUTHENTICATED",
			errMessage: "Database not ready or user not authenticated.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _ := newTestDeps(t, "")
			h := NewHandlers(deps)

			body := validBody()
			if tt.mutate != nil {
				tt.mutate(body)
			}
			e := echo.New()
			req := jsonRequest(http.MethodPost, "/api/cargo", body)
			if tt.user != "" {
				req.Header.Set(UserHeader, tt.user)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := h.Cargo.HandleCreate(c)
			if tt.wantErr {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.errCode, apiErr.Code)
				assert.Equal(t, tt.errMessage, apiErr.Message)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp writeResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Cargo added successfully!", resp.Message)
			require.NotNil(t, resp.Record)
			assert.Equal(t, []string{"H1"}, resp.Record.HouseAirWaybills)
			assert.Equal(t, "In Transit", resp.Record.CurrentStatus)
			assert.Equal(t, tt.user, resp.Record.UserID)
		})
	}
}

func TestCargoHandler_HandleList(t *testing.T) {
	deps, st := newTestDeps(t, "anon")
	st.Seed(
		models.RawRecord{"id": "b", "consignee": "Blue", "eta": "2024-06-10T08:00", "currentStatus": "In Transit", "houseAirWaybills": []any{"H2"}},
		models.RawRecord{"id": "a", "name": "acme", "status": "H1", "eta": "2024-06-12", "currentStatus": "In Transit"},
	)
	e := echo.New()
	RegisterRoutes(e, NewHandlers(deps))
	SetupMiddleware(e, deps.Log)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cargo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view app.ListView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 2)
	assert.Equal(t, "a", view.Items[0].Record.ID, "sorted by consignee, case-insensitive")
	assert.False(t, view.Items[0].Urgent)
	assert.True(t, view.Items[1].Urgent)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cargo?q=h1&field=houseAirWaybills&at=2024-06-12T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	view = app.ListView{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].Urgent)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cargo?q=nothing", nil))
	view = app.ListView{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.Items)
	assert.Equal(t, `No matching cargo found for "nothing".`, view.Empty)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cargo?at=tomorrow", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCargoHandler_UpdateDelete(t *testing.T) {
	deps, st := newTestDeps(t, "anon")
	st.Seed(models.RawRecord{"id": "a", "name": "acme", "status": "H1"})
	e := echo.New()
	RegisterRoutes(e, NewHandlers(deps))
	SetupMiddleware(e, deps.Log)

	body := validBody()
	body["statusChoice"] = "Completed"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, jsonRequest(http.MethodPut, "/api/cargo/a", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp writeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Cargo updated successfully!", resp.Message)
	assert.Equal(t, models.StatusCompleted, resp.Record.CurrentStatus)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cargo/a", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, jsonRequest(http.MethodPut, "/api/cargo/missing", validBody()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/cargo/a", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/cargo/a", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.Message, "Error deleting cargo:")
}

type downService struct{ CargoService }

func (downService) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthHandler(t *testing.T) {
	deps, _ := newTestDeps(t, "")
	e := echo.New()
	RegisterRoutes(e, NewHandlers(deps))
	SetupMiddleware(e, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	deps.Service = downService{deps.Service}
	e = echo.New()
	RegisterRoutes(e, NewHandlers(deps))
	SetupMiddleware(e, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error", NewBadRequestError("bad", nil), http.StatusBadRequest, "BAD_REQUEST"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			ErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}
