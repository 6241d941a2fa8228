package models

// SlotKind identifies one collectible booking attribute.
type SlotKind string

const (
	SlotService  SlotKind = "service"
	SlotLocation SlotKind = "location"
	SlotDate     SlotKind = "date"
	SlotTime     SlotKind = "time"
	SlotName     SlotKind = "name"
	SlotEmail    SlotKind = "email"
)

// SlotOrder is the canonical collection order. The orchestrator always asks
// for the first unvalidated kind in this order.
var SlotOrder = []SlotKind{SlotService, SlotLocation, SlotDate, SlotTime, SlotName, SlotEmail}

// Slot is one collected attribute. Validated implies a non-empty Value.
// The auxiliary fields are filled in when the slot is validated and only the
// fields relevant to the kind are set.
type Slot struct {
	Value     string `json:"value,omitempty"`
	Validated bool   `json:"validated"`

	// service
	ServiceID       string `json:"serviceId,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	// location
	LocationID string `json:"locationId,omitempty"`
	// date, normalized to 2006-01-02
	ISODate string `json:"isoDate,omitempty"`
	// time, resolved against the scheduling backend
	StartMinute int      `json:"startMinute,omitempty"`
	TimeUnitIDs []string `json:"timeUnitIds,omitempty"`
}

// CandidateMap maps a slot kind to a raw, unvalidated value proposed by the
// extractor. Absent kinds are simply not present.
type CandidateMap map[SlotKind]string
