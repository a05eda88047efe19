package cargo

import (
	"strings"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// Field names one searchable attribute of a cargo record.
// The set is closed: anything not listed in Fields is not a field.
type Field string

const (
	FieldConsignee        Field = "consignee"
	FieldConsolNumber     Field = "consolNumber"
	FieldShipmentNumber   Field = "shipmentNumber"
	FieldMasterAirWaybill Field = "masterAirWaybill"
	FieldHouseAirWaybills Field = "houseAirWaybills"
	FieldKLLNumber        Field = "kllNumber"
	FieldPreAlertDate     Field = "preAlertDate"
	FieldETA              Field = "eta"
	FieldCurrentStatus    Field = "currentStatus"
	FieldInstructions     Field = "instructions"

	// FieldCustomStatus is only reported by validation, it is not searchable.
	FieldCustomStatus Field = "customStatus"
)

// Fields lists every searchable field in display order.
var Fields = []Field{
	FieldConsignee,
	FieldConsolNumber,
	FieldShipmentNumber,
	FieldMasterAirWaybill,
	FieldHouseAirWaybills,
	FieldKLLNumber,
	FieldPreAlertDate,
	FieldETA,
	FieldCurrentStatus,
	FieldInstructions,
}

// legacy storage keys that older clients used as filter names
var fieldAliases = map[string]Field{
	"name":        FieldConsignee,
	"weight":      FieldShipmentNumber,
	"destination": FieldMasterAirWaybill,
	"hawbs":       FieldHouseAirWaybills,
}

// ParseField resolves a field name, accepting the legacy aliases.
// It reports false for empty and unknown names.
func ParseField(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if alias, ok := fieldAliases[name]; ok {
		return alias, true
	}
	f := Field(name)
	if f.Known() {
		return f, true
	}
	return "", false
}

// Known reports whether f is one of Fields.
func (f Field) Known() bool {
	switch f {
	case FieldConsignee, FieldConsolNumber, FieldShipmentNumber, FieldMasterAirWaybill,
		FieldHouseAirWaybills, FieldKLLNumber, FieldPreAlertDate, FieldETA,
		FieldCurrentStatus, FieldInstructions:
		return true
	}
	return false
}

// Value returns the stringified value of f on r.
// House air waybills are joined with a single space. Unknown fields yield "".
func (f Field) Value(r models.CargoRecord) string {
	switch f {
	case FieldConsignee:
		return r.Consignee
	case FieldConsolNumber:
		return r.ConsolNumber
	case FieldShipmentNumber:
		return r.ShipmentNumber
	case FieldMasterAirWaybill:
		return r.MasterAirWaybill
	case FieldHouseAirWaybills:
		return strings.Join(r.HouseAirWaybills, " ")
	case FieldKLLNumber:
		return r.KLLNumber
	case FieldPreAlertDate:
		return r.PreAlertDate
	case FieldETA:
		return r.ETA
	case FieldCurrentStatus:
		return r.CurrentStatus
	case FieldInstructions:
		return r.Instructions
	}
	return ""
}
