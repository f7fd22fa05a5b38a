// Package enrich fills the optional description, type, ID, speed and MAC
// fields of interface records from host lookups that are independent of the
// inventory backend.
package enrich

import (
	"context"
	"strconv"

	"github.com/HerbHall/netswitch/pkg/models"
	"go.uber.org/zap"
)

// TypeWireless is reported for interfaces known to the wireless subsystem.
const TypeWireless = "wireless"

// linkInfo is what the link layer knows about one interface.
type linkInfo struct {
	index int
	kind  string
	mac   string
}

// backend performs the per-interface host lookups. Implementations are
// platform specific.
type backend interface {
	link(name string) (linkInfo, error)
	// driver returns a human-readable driver description.
	driver(name string) (string, error)
	// speed returns the negotiated link speed in Mb/s.
	speed(name string) (uint32, error)
	// wireless returns the names of wireless interfaces.
	wireless() (map[string]bool, error)
	close()
}

// Enricher looks up optional record metadata. Failed lookups leave the
// corresponding fields empty.
type Enricher struct {
	logger *zap.Logger
	open   func() (backend, error)
}

// New creates an Enricher backed by the host.
func New(logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{logger: logger, open: openHost}
}

// Enrich returns a copy of records with empty enrichment fields filled
// where the host can provide them.
func (e *Enricher) Enrich(_ context.Context, records []models.InterfaceRecord) []models.InterfaceRecord {
	out := append([]models.InterfaceRecord(nil), records...)

	b, err := e.open()
	if err != nil {
		e.logger.Debug("enrichment unavailable", zap.Error(err))
		return out
	}
	defer b.close()

	wifi, err := b.wireless()
	if err != nil {
		e.logger.Debug("wireless lookup failed", zap.Error(err))
	}

	for i := range out {
		rec := &out[i]
		if li, err := b.link(rec.Name); err == nil {
			if rec.ID == "" && li.index > 0 {
				rec.ID = strconv.Itoa(li.index)
			}
			if rec.Type == "" {
				rec.Type = li.kind
			}
			if rec.MAC == "" {
				rec.MAC = li.mac
			}
		}
		if wifi[rec.Name] {
			rec.Type = TypeWireless
		}
		if rec.Description == "" {
			if desc, err := b.driver(rec.Name); err == nil {
				rec.Description = desc
			}
		}
		if rec.Speed == 0 {
			if mbps, err := b.speed(rec.Name); err == nil {
				rec.Speed = mbps
			}
		}
	}
	return out
}
