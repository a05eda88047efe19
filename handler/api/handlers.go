package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/app"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	service CargoService
	version string
}

func NewHealthHandler(svc CargoService, version string) HealthHandler {
	return HealthHandler{service: svc, version: version}
}

// HandleHealth reports ok when the store answers.
func (h HealthHandler) HandleHealth(c echo.Context) error {
	if err := h.service.Ping(c.Request().Context()); err != nil {
		apiErr := NewServiceUnavailableError("store unavailable")
		apiErr.Details = err.Error()
		return apiErr
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

// CargoHandler serves the cargo REST routes.
type CargoHandler struct {
	service       CargoService
	log           *zap.Logger
	location      *time.Location
	now           func() time.Time
	defaultUserID string
}

func NewCargoHandler(deps *Dependencies) *CargoHandler {
	return &CargoHandler{
		service:       deps.Service,
		log:           deps.Log,
		location:      deps.Location,
		now:           deps.Now,
		defaultUserID: deps.DefaultUserID,
	}
}

// cargoRequest is the body of create and update calls.
// statusChoice/customStatus mirror the status picker: when statusChoice is set it decides
// currentStatus, otherwise currentStatus is taken as is.
type cargoRequest struct {
	Consignee        string   `json:"consignee"`
	ConsolNumber     string   `json:"consolNumber"`
	ShipmentNumber   string   `json:"shipmentNumber"`
	MasterAirWaybill string   `json:"masterAirWaybill"`
	HouseAirWaybills []string `json:"houseAirWaybills"`
	KLLNumber        string   `json:"kllNumber"`
	PreAlertDate     string   `json:"preAlertDate"`
	ETA              string   `json:"eta"`
	CurrentStatus    string   `json:"currentStatus"`
	StatusChoice     string   `json:"statusChoice,omitempty"`
	CustomStatus     string   `json:"customStatus,omitempty"`
	Instructions     string   `json:"instructions"`
}

func (r cargoRequest) record() (models.CargoRecord, error) {
	status := r.CurrentStatus
	if r.StatusChoice != "" {
		resolved, err := cargo.ResolveStatus(cargo.StatusChoice(r.StatusChoice), r.CustomStatus)
		if err != nil {
			return models.CargoRecord{}, err
		}
		status = resolved
	}

	var hawbs []string
	for _, h := range r.HouseAirWaybills {
		hawbs = cargo.AddHouseAirWaybill(hawbs, h)
	}
	if hawbs == nil {
		hawbs = []string{}
	}

	return models.CargoRecord{
		Consignee:        r.Consignee,
		ConsolNumber:     r.ConsolNumber,
		ShipmentNumber:   r.ShipmentNumber,
		MasterAirWaybill: r.MasterAirWaybill,
		HouseAirWaybills: hawbs,
		KLLNumber:        r.KLLNumber,
		PreAlertDate:     r.PreAlertDate,
		ETA:              r.ETA,
		CurrentStatus:    status,
		Instructions:     r.Instructions,
	}, nil
}

// writeResponse is returned by create, update and delete.
type writeResponse struct {
	Message string              `json:"message"`
	Record  *models.CargoRecord `json:"record,omitempty"`
}

// HandleList returns the rendered list. Query params: q (search text), field (restrict the
// search to one field, unknown names search everything), at (RFC 3339 instant to evaluate
// ETA alerts at, defaults to now).
func (h *CargoHandler) HandleList(c echo.Context) error {
	now := h.now().In(h.location)
	if at := c.QueryParam("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return NewBadRequestError("invalid 'at' parameter, expected RFC 3339", err)
		}
		now = t.In(h.location)
	}
	field, _ := cargo.ParseField(c.QueryParam("field"))
	query := c.QueryParam("q")

	records, err := h.service.List(c.Request().Context(), "", "")
	if err != nil {
		h.log.Error("list cargo failed", zap.Error(err))
		return fromOpError(app.OpLoad, "", err)
	}
	return c.JSON(http.StatusOK, app.BuildListView(records, query, field, now))
}

func (h *CargoHandler) HandleGet(c echo.Context) error {
	id := c.Param("id")
	record, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return fromOpError(app.OpLoad, id, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *CargoHandler) HandleCreate(c echo.Context) error {
	var req cargoRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	record, err := req.record()
	if err != nil {
		return fromOpError(app.OpCreate, "", err)
	}

	created, err := h.service.Create(c.Request().Context(), h.userID(c), record)
	if err != nil {
		return fromOpError(app.OpCreate, "", err)
	}
	return c.JSON(http.StatusCreated, writeResponse{Message: app.OpCreate.SuccessMessage(), Record: &created})
}

func (h *CargoHandler) HandleUpdate(c echo.Context) error {
	id := c.Param("id")
	var req cargoRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	record, err := req.record()
	if err != nil {
		return fromOpError(app.OpUpdate, id, err)
	}
	if h.userID(c) == "" {
		return fromOpError(app.OpUpdate, id, app.ErrNotReady)
	}

	updated, err := h.service.Update(c.Request().Context(), id, record)
	if err != nil {
		return fromOpError(app.OpUpdate, id, err)
	}
	return c.JSON(http.StatusOK, writeResponse{Message: app.OpUpdate.SuccessMessage(), Record: &updated})
}

func (h *CargoHandler) HandleDelete(c echo.Context) error {
	id := c.Param("id")
	if h.userID(c) == "" {
		return fromOpError(app.OpDelete, id, app.ErrNotReady)
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return fromOpError(app.OpDelete, id, err)
	}
	return c.JSON(http.StatusOK, writeResponse{Message: app.OpDelete.SuccessMessage()})
}

func (h *CargoHandler) userID(c echo.Context) string {
	if id := strings.TrimSpace(c.Request().Header.Get(UserHeader)); id != "" {
		return id
	}
	return h.defaultUserID
}
