package models

import "time"

/*
Cargo records flow from the store (firestore, postgres, sqlite or memory) through the
normalizer before anything else touches them. Stores hand out RawRecord, everybody else
works with CargoRecord.
*/

// StatusCompleted is the only terminal status. Every other status text means "in progress".
const StatusCompleted = "Completed"

// RawRecord is a record exactly as the store returned it: field name -> value.
// It may be in the legacy shape (scalar "status" instead of "houseAirWaybills").
type RawRecord map[string]any

// CargoRecord is the canonical shape of a cargo item.
type CargoRecord struct {
	ID               string    `json:"id,omitempty"` //assigned by the store, never by the client
	Consignee        string    `json:"consignee"`
	ConsolNumber     string    `json:"consolNumber"`
	ShipmentNumber   string    `json:"shipmentNumber"`
	MasterAirWaybill string    `json:"masterAirWaybill"` //MAWB#
	HouseAirWaybills []string  `json:"houseAirWaybills"` //HAWB#s, insertion order preserved
	KLLNumber        string    `json:"kllNumber"`
	PreAlertDate     string    `json:"preAlertDate"` //ISO 8601 date e.g. 2024-06-01
	ETA              string    `json:"eta"`          //ISO 8601 date-time e.g. 2024-06-10T08:00
	CurrentStatus    string    `json:"currentStatus"`
	Instructions     string    `json:"instructions"`
	UserID           string    `json:"userId,omitempty"` //who created the record
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Raw converts the record back to the canonical stored field map.
// Zero timestamps and an empty id are left out.
func (r CargoRecord) Raw() RawRecord {
	hawbs := make([]string, len(r.HouseAirWaybills))
	copy(hawbs, r.HouseAirWaybills)

	raw := RawRecord{
		"consignee":        r.Consignee,
		"consolNumber":     r.ConsolNumber,
		"shipmentNumber":   r.ShipmentNumber,
		"masterAirWaybill": r.MasterAirWaybill,
		"houseAirWaybills": hawbs,
		"kllNumber":        r.KLLNumber,
		"preAlertDate":     r.PreAlertDate,
		"eta":              r.ETA,
		"currentStatus":    r.CurrentStatus,
		"instructions":     r.Instructions,
	}
	if r.ID != "" {
		raw["id"] = r.ID
	}
	if r.UserID != "" {
		raw["userId"] = r.UserID
	}
	if !r.CreatedAt.IsZero() {
		raw["createdAt"] = r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		raw["updatedAt"] = r.UpdatedAt
	}
	return raw
}

// IsCompleted reports whether the record reached the terminal status.
func (r CargoRecord) IsCompleted() bool {
	return r.CurrentStatus == StatusCompleted
}
