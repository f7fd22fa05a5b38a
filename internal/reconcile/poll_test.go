package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/HerbHall/netswitch/internal/testutil"
	"github.com/HerbHall/netswitch/pkg/models"
)

func TestSettleDecision(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	timeout := 5 * time.Second
	stable := stableSet(DefaultConfig().StableStates)
	entry := PollEntry{Name: "Wi-Fi", Started: t0}

	rec := func(admin models.AdminState, oper models.OperState) *models.InterfaceRecord {
		r := testutil.Rec("Wi-Fi", admin, oper)
		return &r
	}

	tests := []struct {
		name       string
		out        probeOutcome
		elapsed    time.Duration
		wantReason SettleReason
		wantDone   bool
	}{
		{"connected settles", probeOutcome{record: rec(models.AdminEnabled, models.OperConnected)}, time.Second, SettleStable, true},
		{"disconnected is stable", probeOutcome{record: rec(models.AdminEnabled, models.OperDisconnected)}, time.Second, SettleStable, true},
		{"non-operational is stable", probeOutcome{record: rec(models.AdminEnabled, models.OperNonOperational)}, time.Second, SettleStable, true},
		{"operational is stable", probeOutcome{record: rec(models.AdminEnabled, models.OperOperational)}, time.Second, SettleStable, true},
		{"unlisted state keeps polling", probeOutcome{record: rec(models.AdminEnabled, "Connecting")}, time.Second, "", false},
		{"disabled keeps polling", probeOutcome{record: rec(models.AdminDisabled, models.OperConnected)}, time.Second, "", false},
		{"not found settles", probeOutcome{}, time.Second, SettleVanished, true},
		{"probe error keeps polling", probeOutcome{err: errors.New("exec failed")}, time.Second, "", false},
		{"at timeout keeps polling", probeOutcome{record: rec(models.AdminEnabled, "Connecting")}, timeout, "", false},
		{"past timeout force-settles", probeOutcome{record: rec(models.AdminEnabled, "Connecting")}, timeout + time.Millisecond, SettleTimeout, true},
		{"probe error past timeout force-settles", probeOutcome{err: errors.New("exec failed")}, timeout + time.Second, SettleTimeout, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, done := settleDecision(entry, tt.out, t0.Add(tt.elapsed), timeout, stable)
			if done != tt.wantDone || reason != tt.wantReason {
				t.Errorf("settleDecision() = (%q, %v), want (%q, %v)", reason, done, tt.wantReason, tt.wantDone)
			}
		})
	}
}

func TestNeedsPoll(t *testing.T) {
	tests := []struct {
		name string
		prev models.InterfaceRecord
		cur  models.InterfaceRecord
		want bool
	}{
		{"enable not yet connected", testutil.Rec("x", models.AdminDisabled, models.OperDisconnected), testutil.Rec("x", models.AdminEnabled, models.OperDisconnected), true},
		{"enable other state", testutil.Rec("x", models.AdminDisabled, models.OperDisconnected), testutil.Rec("x", models.AdminEnabled, "Connecting"), true},
		{"enable already connected", testutil.Rec("x", models.AdminDisabled, models.OperDisconnected), testutil.Rec("x", models.AdminEnabled, models.OperConnected), false},
		{"disable", testutil.Rec("x", models.AdminEnabled, models.OperConnected), testutil.Rec("x", models.AdminDisabled, models.OperDisconnected), false},
		{"already enabled", testutil.Rec("x", models.AdminEnabled, models.OperDisconnected), testutil.Rec("x", models.AdminEnabled, models.OperDisconnected), false},
		{"unknown previous", testutil.Rec("x", models.AdminUnknown, models.OperDisconnected), testutil.Rec("x", models.AdminEnabled, models.OperDisconnected), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsPoll(tt.prev, tt.cur); got != tt.want {
				t.Errorf("needsPoll() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPollSetAddIsUnique(t *testing.T) {
	p := make(pollSet)
	t0 := time.Now()
	if !p.add("Wi-Fi", t0) {
		t.Fatal("first add = false")
	}
	if p.add("WI-FI", t0.Add(time.Second)) {
		t.Error("second add for same name = true, want false")
	}
	if len(p) != 1 {
		t.Fatalf("len = %d, want 1", len(p))
	}
	if got := p.entries()[0].Started; !got.Equal(t0) {
		t.Errorf("Started = %v, want original %v", got, t0)
	}
	if !p.has("wi-fi") {
		t.Error("has(wi-fi) = false")
	}
}
