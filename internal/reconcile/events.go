package reconcile

import "github.com/HerbHall/netswitch/pkg/models"

// Event topics published by the reconciliation engine.
const (
	TopicInterfacesSettled = "linkstate.interfaces.settled"
	TopicRefreshFailed     = "linkstate.refresh.failed"
)

// EventSource is the Source field on events published by the engine.
const EventSource = "linkstate"

// Trigger identifies what caused a settle event.
type Trigger string

const (
	TriggerStartup Trigger = "startup"
	TriggerManual  Trigger = "manual"
	TriggerSignal  Trigger = "signal"
	TriggerPoll    Trigger = "poll"
)

// SettledInterface names one interface whose poll entry settled in a tick.
type SettledInterface struct {
	Name   string       `json:"name"`
	Reason SettleReason `json:"reason"`
}

// SettledEvent is the payload for TopicInterfacesSettled. Interfaces is a
// read-only copy of the table; consumers must not retain and mutate it.
type SettledEvent struct {
	CycleID    string                   `json:"cycle_id"`
	Trigger    Trigger                  `json:"trigger"`
	Interfaces []models.InterfaceRecord `json:"interfaces"`
	Settled    []SettledInterface       `json:"settled,omitempty"`
	Polling    []string                 `json:"polling,omitempty"`
}

// RefreshFailedEvent is the payload for TopicRefreshFailed.
type RefreshFailedEvent struct {
	CycleID string  `json:"cycle_id"`
	Trigger Trigger `json:"trigger"`
	Error   string  `json:"error"`
}
