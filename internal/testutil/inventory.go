package testutil

import (
	"context"
	"sync"

	"github.com/HerbHall/netswitch/pkg/models"
)

// FakeInventory is a scriptable in-memory host inventory. It serves both
// full fetches and single-interface probes from the same record set, and
// can be told to fail either call.
type FakeInventory struct {
	mu       sync.Mutex
	records  []models.InterfaceRecord
	fetchErr error
	probeErr map[string]error
	fetches  int
	probes   map[string]int
}

// NewFakeInventory returns a FakeInventory seeded with records.
func NewFakeInventory(records ...models.InterfaceRecord) *FakeInventory {
	f := &FakeInventory{
		probeErr: make(map[string]error),
		probes:   make(map[string]int),
	}
	f.Set(records...)
	return f
}

// Set replaces the whole inventory.
func (f *FakeInventory) Set(records ...models.InterfaceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append([]models.InterfaceRecord(nil), records...)
}

// Update replaces (or appends) one record by case-insensitive name.
func (f *FakeInventory) Update(rec models.InterfaceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].Key() == rec.Key() {
			f.records[i] = rec
			return
		}
	}
	f.records = append(f.records, rec)
}

// Delete removes one record by case-insensitive name.
func (f *FakeInventory) Delete(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := models.NameKey(name)
	out := f.records[:0]
	for _, r := range f.records {
		if r.Key() != k {
			out = append(out, r)
		}
	}
	f.records = out
}

// FailFetch makes subsequent Fetch calls return err (nil clears it).
func (f *FakeInventory) FailFetch(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

// FailProbe makes subsequent probes of name return err (nil clears it).
func (f *FakeInventory) FailProbe(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.probeErr, models.NameKey(name))
		return
	}
	f.probeErr[models.NameKey(name)] = err
}

// Fetch returns a copy of the inventory.
func (f *FakeInventory) Fetch(_ context.Context) ([]models.InterfaceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]models.InterfaceRecord(nil), f.records...), nil
}

// Probe returns the record named name, or nil when absent.
func (f *FakeInventory) Probe(_ context.Context, name string) (*models.InterfaceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := models.NameKey(name)
	f.probes[k]++
	if err := f.probeErr[k]; err != nil {
		return nil, err
	}
	for _, r := range f.records {
		if r.Key() == k {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

// Fetches returns how many times Fetch was called.
func (f *FakeInventory) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// Probes returns how many times name was probed.
func (f *FakeInventory) Probes(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes[models.NameKey(name)]
}
