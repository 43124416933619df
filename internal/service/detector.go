package service

import (
	"fmt"
	"reflect"

	"github.com/selamgebre/birrsync/internal/registry"
	"github.com/selamgebre/birrsync/models"
)

// Classification is the detector's verdict for one mutation against the
// server's current state. For soft conflicts Merged carries the auto-merge
// result ready to send.
type Classification struct {
	Class  models.ConflictClass
	Merged models.Fields
}

// Classify compares one queued mutation with the entity's current server
// snapshot and decides how the engine should proceed. It is pure: same inputs,
// same verdict, no I/O.
//
// The decision runs on versions first and fields second:
//   - server version still equals the mutation's base version: clean;
//   - delete racing a server edit, or an edit racing a server delete: hard,
//     the two intents cannot be combined mechanically;
//   - create hitting an already existing record: hard (an ID collision, not a
//     field-level disagreement);
//   - update racing a server update: three-way field diff against the base
//     snapshot. Disjoint change sets merge; overlapping fields changed to
//     different values are hard.
func Classify(mutation models.MutationRecord, server models.RemoteEntity, merge registry.MergeFunc) (Classification, error) {
	switch mutation.Operation {
	case models.OpCreate:
		return classifyCreate(server)
	case models.OpDelete:
		return classifyDelete(mutation, server)
	case models.OpUpdate:
		return classifyUpdate(mutation, server, merge)
	default:
		return Classification{}, fmt.Errorf("%w: %q", ErrUnknownOperation, mutation.Operation)
	}
}

func classifyCreate(server models.RemoteEntity) (Classification, error) {
	// The server having any history for this ID means two devices generated
	// the same ID or the create already landed once.
	if server.Version > 0 {
		return Classification{Class: models.ClassHard}, nil
	}
	return Classification{Class: models.ClassClean}, nil
}

func classifyDelete(mutation models.MutationRecord, server models.RemoteEntity) (Classification, error) {
	// Already gone on the server: the intent is satisfied either way.
	if server.Deleted || server.Version == 0 {
		return Classification{Class: models.ClassClean}, nil
	}
	if server.Version == mutation.BaseVersion {
		return Classification{Class: models.ClassClean}, nil
	}
	// Someone edited what we are deleting. Never auto-pick a side.
	return Classification{Class: models.ClassHard}, nil
}

func classifyUpdate(mutation models.MutationRecord, server models.RemoteEntity, merge registry.MergeFunc) (Classification, error) {
	// Editing something the server deleted (or never had) is a hard conflict:
	// silently resurrecting or silently dropping the edit both lose data.
	if server.Deleted || server.Version == 0 {
		return Classification{Class: models.ClassHard}, nil
	}
	if server.Version == mutation.BaseVersion {
		return Classification{Class: models.ClassClean}, nil
	}

	serverChanged := changedFields(mutation.BaseSnapshot, server.Data)

	for field, localValue := range mutation.Payload {
		if !serverChanged[field] {
			continue
		}
		// Both sides touched the field. Converging on the same value is not a
		// disagreement.
		if !reflect.DeepEqual(localValue, server.Data[field]) {
			return Classification{Class: models.ClassHard}, nil
		}
	}

	merged, err := merge(server.Data, mutation.Payload)
	if err != nil {
		return Classification{}, fmt.Errorf("auto-merge failed: %w", err)
	}

	return Classification{Class: models.ClassSoft, Merged: merged}, nil
}

// changedFields returns the set of field names whose value differs between
// the mutation's base snapshot and the server's current data, including
// fields added or removed on either side.
func changedFields(base, current models.Fields) map[string]bool {
	changed := make(map[string]bool)

	for field, baseValue := range base {
		currentValue, ok := current[field]
		if !ok || !reflect.DeepEqual(baseValue, currentValue) {
			changed[field] = true
		}
	}
	for field := range current {
		if _, ok := base[field]; !ok {
			changed[field] = true
		}
	}

	return changed
}
