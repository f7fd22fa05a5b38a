package reconcile

import "github.com/HerbHall/netswitch/pkg/models"

// Table is the last-known interface state keyed by case-insensitive name.
// It preserves the order in which names were first seen. Table is not safe
// for concurrent use; the Engine loop is its only writer.
type Table struct {
	order []string
	byKey map[string]models.InterfaceRecord
}

// NewTable builds a table from records. A later record for an
// already-present name replaces the earlier one in place.
func NewTable(records []models.InterfaceRecord) *Table {
	t := &Table{byKey: make(map[string]models.InterfaceRecord, len(records))}
	for _, r := range records {
		t.put(r)
	}
	return t
}

func (t *Table) put(r models.InterfaceRecord) {
	k := r.Key()
	if _, ok := t.byKey[k]; !ok {
		t.order = append(t.order, k)
	}
	t.byKey[k] = r
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.order)
}

// Get returns the record for name.
func (t *Table) Get(name string) (models.InterfaceRecord, bool) {
	r, ok := t.byKey[models.NameKey(name)]
	return r, ok
}

// MergeState copies the admin and operational state of rec onto the existing
// entry with the same name, leaving enrichment fields untouched. It reports
// whether anything changed; merging into an absent name is a no-op.
func (t *Table) MergeState(rec models.InterfaceRecord) bool {
	k := rec.Key()
	cur, ok := t.byKey[k]
	if !ok || cur.SameState(rec) {
		return false
	}
	cur.AdminState = rec.AdminState
	cur.OperState = rec.OperState
	t.byKey[k] = cur
	return true
}

// Remove deletes name from the table and reports whether it was present.
func (t *Table) Remove(name string) bool {
	k := models.NameKey(name)
	if _, ok := t.byKey[k]; !ok {
		return false
	}
	delete(t.byKey, k)
	for i, o := range t.order {
		if o == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Snapshot returns a copy of the records in table order.
func (t *Table) Snapshot() []models.InterfaceRecord {
	out := make([]models.InterfaceRecord, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.byKey[k])
	}
	return out
}
