package testutil

import "github.com/HerbHall/netswitch/pkg/models"

// NewRecord returns an InterfaceRecord with sensible defaults, suitable for
// test fixtures. Override individual fields with options.
func NewRecord(name string, opts ...func(*models.InterfaceRecord)) models.InterfaceRecord {
	r := models.InterfaceRecord{
		Name:       name,
		AdminState: models.AdminEnabled,
		OperState:  models.OperConnected,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Rec is shorthand for a record with explicit admin and operational state.
func Rec(name string, admin models.AdminState, oper models.OperState) models.InterfaceRecord {
	return NewRecord(name, WithAdmin(admin), WithOper(oper))
}

// WithAdmin sets the admin state.
func WithAdmin(s models.AdminState) func(*models.InterfaceRecord) {
	return func(r *models.InterfaceRecord) { r.AdminState = s }
}

// WithOper sets the operational state.
func WithOper(s models.OperState) func(*models.InterfaceRecord) {
	return func(r *models.InterfaceRecord) { r.OperState = s }
}

// WithDescription sets the enrichment description.
func WithDescription(d string) func(*models.InterfaceRecord) {
	return func(r *models.InterfaceRecord) { r.Description = d }
}

// WithType sets the enrichment interface type.
func WithType(t string) func(*models.InterfaceRecord) {
	return func(r *models.InterfaceRecord) { r.Type = t }
}

// WithID sets the enrichment identifier.
func WithID(id string) func(*models.InterfaceRecord) {
	return func(r *models.InterfaceRecord) { r.ID = id }
}
