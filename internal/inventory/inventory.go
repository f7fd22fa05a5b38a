// Package inventory reads the host's network interface list and looks up
// single interfaces by name. Two backends are provided: NetlinkSource talks
// to the kernel directly, CommandSource runs an external tool and parses its
// tabular output.
package inventory

import (
	"context"
	"errors"

	"github.com/HerbHall/netswitch/pkg/models"
)

// ErrNotFound is returned by Lookup when no interface matches a name.
var ErrNotFound = errors.New("inventory: interface not found")

// Source is a full-inventory fetcher that can also probe one interface.
// Probe returns (nil, nil) when the interface does not exist.
type Source interface {
	Fetch(ctx context.Context) ([]models.InterfaceRecord, error)
	Probe(ctx context.Context, name string) (*models.InterfaceRecord, error)
}

// Lookup probes name and converts a missing interface into ErrNotFound.
func Lookup(ctx context.Context, src Source, name string) (models.InterfaceRecord, error) {
	rec, err := src.Probe(ctx, name)
	if err != nil {
		return models.InterfaceRecord{}, err
	}
	if rec == nil {
		return models.InterfaceRecord{}, ErrNotFound
	}
	return *rec, nil
}

// find returns the record whose name matches name case-insensitively.
func find(records []models.InterfaceRecord, name string) *models.InterfaceRecord {
	k := models.NameKey(name)
	for i := range records {
		if records[i].Key() == k {
			rec := records[i]
			return &rec
		}
	}
	return nil
}
