package cargo

import (
	"fmt"
	"time"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// keys written by the first version of the app, checked when the canonical key is missing
var legacyKeys = map[string]string{
	"consignee":        "name",
	"shipmentNumber":   "weight",
	"masterAirWaybill": "destination",
	"houseAirWaybills": "hawbs",
}

// Normalize converts a raw stored record into the canonical shape. It never fails.
//
// House air waybills come from the "houseAirWaybills" (or legacy "hawbs") sequence when
// present, otherwise from a non-empty legacy scalar "status", otherwise they are empty.
// Normalize(Normalize(x).Raw()) equals Normalize(x).
func Normalize(raw models.RawRecord) models.CargoRecord {
	return models.CargoRecord{
		ID:               stringValue(raw["id"]),
		Consignee:        lookup(raw, "consignee"),
		ConsolNumber:     lookup(raw, "consolNumber"),
		ShipmentNumber:   lookup(raw, "shipmentNumber"),
		MasterAirWaybill: lookup(raw, "masterAirWaybill"),
		HouseAirWaybills: houseAirWaybills(raw),
		KLLNumber:        lookup(raw, "kllNumber"),
		PreAlertDate:     lookup(raw, "preAlertDate"),
		ETA:              lookup(raw, "eta"),
		CurrentStatus:    lookup(raw, "currentStatus"),
		Instructions:     lookup(raw, "instructions"),
		UserID:           lookup(raw, "userId"),
		CreatedAt:        timeValue(raw["createdAt"]),
		UpdatedAt:        timeValue(raw["updatedAt"]),
	}
}

func lookup(raw models.RawRecord, key string) string {
	if v, ok := raw[key]; ok && v != nil {
		return stringValue(v)
	}
	if legacy, ok := legacyKeys[key]; ok {
		return stringValue(raw[legacy])
	}
	return ""
}

func houseAirWaybills(raw models.RawRecord) []string {
	v, ok := raw["houseAirWaybills"]
	if !ok || v == nil {
		v = raw["hawbs"]
	}
	switch seq := v.(type) {
	case []string:
		out := make([]string, len(seq))
		copy(out, seq)
		return out
	case []any:
		out := make([]string, 0, len(seq))
		for _, item := range seq {
			out = append(out, stringValue(item))
		}
		return out
	}

	if status := stringValue(raw["status"]); status != "" {
		return []string{status}
	}
	return []string{}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func timeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
