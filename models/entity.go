// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// EntityType is the tag of a domain entity kind the engine can synchronize.
// The set of valid tags is defined by the registry; values outside of it are
// rejected at the authoring boundary.
type EntityType string

const (
	EntityAccount              EntityType = "account"
	EntityTransaction          EntityType = "transaction"
	EntityGoal                 EntityType = "goal"
	EntityBudgetCategory       EntityType = "budgetCategory"
	EntityIqub                 EntityType = "iqub"
	EntityIddir                EntityType = "iddir"
	EntityRecurringTransaction EntityType = "recurringTransaction"
)

// Operation is the kind of local write captured by a mutation.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Fields is a field-level value set: the full object for a create, the
// changed fields only for an update. It is stored as JSON in SQLite and on
// the wire.
type Fields map[string]any

// Value implements driver.Valuer so Fields can be bound directly as a SQL
// parameter. A nil map is stored as SQL NULL (delete mutations carry no
// payload).
func (f Fields) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return string(payload), nil
}

// Scan implements sql.Scanner for reading Fields back out of SQLite.
func (f *Fields) Scan(src any) error {
	if src == nil {
		*f = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported fields column type %T", src)
	}

	if len(raw) == 0 {
		*f = nil
		return nil
	}
	if err := json.Unmarshal(raw, f); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	return nil
}

// Clone returns a shallow copy of the field set. Nested values are shared;
// callers treat Fields as write-once after authoring.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Keys returns the field names present in the set, in map order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	return keys
}