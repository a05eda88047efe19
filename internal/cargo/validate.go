package cargo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// ErrCustomStatusRequired is returned when "Other (specify)" is picked without a status text.
var ErrCustomStatusRequired = errors.New("please specify the custom status")

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []Field
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("invalid cargo record: missing %s", strings.Join(names, ", "))
}

// Has reports whether f is among the violated fields.
func (e *ValidationError) Has(f Field) bool {
	for _, v := range e.Fields {
		if v == f {
			return true
		}
	}
	return false
}

// Validate checks a record at the create/update boundary.
// It returns nil or a *ValidationError naming all violated fields at once.
func Validate(r models.CargoRecord) error {
	var missing []Field
	required := []struct {
		field Field
		value string
	}{
		{FieldConsignee, r.Consignee},
		{FieldConsolNumber, r.ConsolNumber},
		{FieldShipmentNumber, r.ShipmentNumber},
		{FieldMasterAirWaybill, r.MasterAirWaybill},
		{FieldKLLNumber, r.KLLNumber},
		{FieldPreAlertDate, r.PreAlertDate},
		{FieldETA, r.ETA},
		{FieldCurrentStatus, r.CurrentStatus},
	}
	for _, req := range required {
		if strings.TrimSpace(req.value) == "" {
			missing = append(missing, req.field)
		}
	}
	if !hasHouseAirWaybill(r.HouseAirWaybills) {
		missing = append(missing, FieldHouseAirWaybills)
	}

	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func hasHouseAirWaybill(hawbs []string) bool {
	for _, h := range hawbs {
		if strings.TrimSpace(h) != "" {
			return true
		}
	}
	return false
}
