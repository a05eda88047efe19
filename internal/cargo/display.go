package cargo

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// ETADisplayLayout is how a parsed ETA is rendered in lists.
const ETADisplayLayout = "Jan 2, 2006, 3:04 PM"

// Badge holds the colours of the status pill.
type Badge struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

var (
	completedBadge  = Badge{Background: "#000000", Foreground: "#FFFFFF"}
	inProgressBadge = Badge{Background: "#22C55E", Foreground: "#000000"}
)

// StatusBadge picks the pill colours for a status.
func StatusBadge(status string) Badge {
	if status == models.StatusCompleted {
		return completedBadge
	}
	return inProgressBadge
}

// FormatETA renders an ETA for display: "N/A" when empty, the raw text when it does not
// parse, otherwise ETADisplayLayout in loc.
func FormatETA(eta string, loc *time.Location) string {
	if eta == "" {
		return "N/A"
	}
	t, ok := ParseETA(eta, loc)
	if !ok {
		return eta
	}
	return t.Format(ETADisplayLayout)
}

// Prepare normalizes a store snapshot and orders it by consignee.
// The order the store delivered records in is not relied on.
func Prepare(raws []models.RawRecord) []models.CargoRecord {
	records := make([]models.CargoRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(raw))
	}
	SortByConsignee(records)
	return records
}

// SortByConsignee sorts in place using locale-aware collation, ties broken by id.
func SortByConsignee(records []models.CargoRecord) {
	col := collate.New(language.Und)
	sort.SliceStable(records, func(i, j int) bool {
		if c := col.CompareString(records[i].Consignee, records[j].Consignee); c != 0 {
			return c < 0
		}
		return records[i].ID < records[j].ID
	})
}
