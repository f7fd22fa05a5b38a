package models

import "strings"

// AdminState is the policy-controlled enabled/disabled flag of an interface.
type AdminState string

// Admin states reported by inventory backends.
const (
	AdminEnabled  AdminState = "Enabled"
	AdminDisabled AdminState = "Disabled"
	AdminUnknown  AdminState = "Unknown"
)

// ParseAdminState maps a reported admin state to an AdminState.
// Matching is case-insensitive; anything unrecognized is AdminUnknown.
func ParseAdminState(s string) AdminState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enabled":
		return AdminEnabled
	case "disabled":
		return AdminDisabled
	default:
		return AdminUnknown
	}
}

// OperState is the link-layer connectivity status of an interface. Besides
// the well-known values it may carry any string a backend reports.
type OperState string

// Well-known operational states.
const (
	OperConnected      OperState = "Connected"
	OperDisconnected   OperState = "Disconnected"
	OperNonOperational OperState = "Non-operational"
	OperOperational    OperState = "Operational"
)

// InterfaceRecord is the last known state of one host network interface.
// Description, Type, ID, Speed and MAC come from a separate enrichment
// lookup and are zero when unavailable.
type InterfaceRecord struct {
	Name        string     `json:"name"`
	AdminState  AdminState `json:"admin_state"`
	OperState   OperState  `json:"oper_state"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type,omitempty"`
	ID          string     `json:"id,omitempty"`
	Speed       uint32     `json:"speed,omitempty"` // Mb/s
	MAC         string     `json:"mac,omitempty"`
}

// Key returns the case-insensitive identity key of the record.
func (r InterfaceRecord) Key() string {
	return NameKey(r.Name)
}

// SameState reports whether both records carry the same admin and
// operational state. Enrichment fields are ignored.
func (r InterfaceRecord) SameState(o InterfaceRecord) bool {
	return r.AdminState == o.AdminState && r.OperState == o.OperState
}

// NameKey normalizes an interface name into its identity key.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
