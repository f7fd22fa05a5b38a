package reconcile

import (
	"sort"
	"time"

	"github.com/HerbHall/netswitch/pkg/models"
)

// PollEntry tracks one interface whose transition has not settled yet.
type PollEntry struct {
	Name    string    `json:"name"`
	Started time.Time `json:"started"`
}

// SettleReason explains why a poll entry was settled.
type SettleReason string

const (
	SettleStable   SettleReason = "stable"
	SettleVanished SettleReason = "vanished"
	SettleTimeout  SettleReason = "timeout"
)

// probeOutcome is the result of probing one polled interface in a tick.
type probeOutcome struct {
	name   string
	record *models.InterfaceRecord // nil when the interface was not found
	err    error
}

// settleDecision decides whether a probed entry is settled at now.
// A probe error never settles by itself; the timeout still applies.
func settleDecision(e PollEntry, out probeOutcome, now time.Time, timeout time.Duration, stable map[models.OperState]bool) (SettleReason, bool) {
	if out.err == nil {
		if out.record == nil {
			return SettleVanished, true
		}
		if out.record.AdminState == models.AdminEnabled && stable[out.record.OperState] {
			return SettleStable, true
		}
	}
	if now.Sub(e.Started) > timeout {
		return SettleTimeout, true
	}
	return "", false
}

// needsPoll reports whether the transition prev -> cur is an enable that has
// not reached Connected yet.
func needsPoll(prev, cur models.InterfaceRecord) bool {
	return prev.AdminState == models.AdminDisabled &&
		cur.AdminState == models.AdminEnabled &&
		cur.OperState != models.OperConnected
}

// pollSet holds at most one entry per interface key.
type pollSet map[string]PollEntry

// add creates an entry for name unless one exists and reports whether it did.
func (p pollSet) add(name string, now time.Time) bool {
	k := models.NameKey(name)
	if _, ok := p[k]; ok {
		return false
	}
	p[k] = PollEntry{Name: name, Started: now}
	return true
}

func (p pollSet) has(name string) bool {
	_, ok := p[models.NameKey(name)]
	return ok
}

// entries returns the entries sorted by name for stable iteration.
func (p pollSet) entries() []PollEntry {
	out := make([]PollEntry, 0, len(p))
	for _, e := range p {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func stableSet(states []models.OperState) map[models.OperState]bool {
	m := make(map[models.OperState]bool, len(states))
	for _, s := range states {
		m[s] = true
	}
	return m
}
