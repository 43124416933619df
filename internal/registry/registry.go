// Package registry maps entity-type tags to per-type sync behavior: the
// remote endpoint an entity kind lives under and the merge strategy used for
// soft conflicts. Dispatch on entity type goes through this table instead of
// a conditional spread across the engine.
package registry

import (
	"errors"
	"fmt"

	"dario.cat/mergo"

	"github.com/selamgebre/birrsync/models"
)

// ErrUnknownEntityType is returned when a tag has no registered descriptor.
// The authoring API rejects such mutations before anything is queued.
var ErrUnknownEntityType = errors.New("unknown entity type")

// MergeFunc combines the current server snapshot with a mutation's field
// changes into the value to store. Called only for soft conflicts, where the
// changed field sets are already known not to overlap.
type MergeFunc func(server, payload models.Fields) (models.Fields, error)

// Descriptor holds the sync behavior for one entity kind.
type Descriptor struct {
	// Endpoint is the remote collection path segment, e.g. "transactions".
	Endpoint string
	// Merge produces the auto-merged value for a soft conflict.
	Merge MergeFunc
}

// Registry is the immutable entity-type dispatch table. Built once at
// startup; safe for concurrent readers.
type Registry struct {
	descriptors map[models.EntityType]Descriptor
}

// New builds a registry from the given descriptor table. Descriptors without
// a Merge function get MergeLastWriterWins.
func New(descriptors map[models.EntityType]Descriptor) *Registry {
	table := make(map[models.EntityType]Descriptor, len(descriptors))
	for tag, d := range descriptors {
		if d.Merge == nil {
			d.Merge = MergeLastWriterWins
		}
		table[tag] = d
	}
	return &Registry{descriptors: table}
}

// Default returns the registry covering every entity kind the finance app
// synchronizes. All kinds currently use last-writer-wins per field; Iqub and
// Iddir contribution amounts deliberately do not auto-sum — overlapping
// amount edits must surface as hard conflicts for the user to decide.
func Default() *Registry {
	return New(map[models.EntityType]Descriptor{
		models.EntityAccount:              {Endpoint: "accounts"},
		models.EntityTransaction:          {Endpoint: "transactions"},
		models.EntityGoal:                 {Endpoint: "goals"},
		models.EntityBudgetCategory:       {Endpoint: "budget-categories"},
		models.EntityIqub:                 {Endpoint: "iqubs"},
		models.EntityIddir:                {Endpoint: "iddirs"},
		models.EntityRecurringTransaction: {Endpoint: "recurring-transactions"},
	})
}

// Lookup returns the descriptor for tag, or ErrUnknownEntityType.
func (r *Registry) Lookup(tag models.EntityType) (Descriptor, error) {
	d, ok := r.descriptors[tag]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownEntityType, tag)
	}
	return d, nil
}

// Known reports whether tag has a registered descriptor.
func (r *Registry) Known(tag models.EntityType) bool {
	_, ok := r.descriptors[tag]
	return ok
}

// Types returns all registered entity-type tags.
func (r *Registry) Types() []models.EntityType {
	tags := make([]models.EntityType, 0, len(r.descriptors))
	for tag := range r.descriptors {
		tags = append(tags, tag)
	}
	return tags
}

// MergeLastWriterWins lays the mutation's field changes over the current
// server snapshot: untouched fields keep the server's value, touched fields
// take the local one.
func MergeLastWriterWins(server, payload models.Fields) (models.Fields, error) {
	merged := server.Clone()
	if merged == nil {
		merged = models.Fields{}
	}
	if err := mergo.Merge(&merged, payload, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge fields: %w", err)
	}
	return merged, nil
}
