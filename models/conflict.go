// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package models

import "time"

// ConflictClass is the outcome of classifying one mutation against the
// entity's current server state.
type ConflictClass string

const (
	// ClassClean — no concurrent server-side change; apply directly.
	ClassClean ConflictClass = "clean"
	// ClassSoft — concurrent but non-overlapping field changes; auto-merge by
	// applying the mutation's fields onto the current server snapshot.
	ClassSoft ConflictClass = "soft-conflict"
	// ClassHard — overlapping field changes (or a delete racing an edit);
	// requires an explicit user decision.
	ClassHard ConflictClass = "hard-conflict"
)

// ResolutionState is the lifecycle state of a ConflictRecord.
type ResolutionState string

const (
	ResolutionUnresolved ResolutionState = "unresolved"
	ResolutionLocalWins  ResolutionState = "resolved-local-wins"
	ResolutionServerWins ResolutionState = "resolved-server-wins"
	ResolutionMerged     ResolutionState = "resolved-merged"
)

// ConflictRecord is an unresolved divergence between a local mutation and the
// server's current state. It is created by the detector during a sync pass
// and leaves the pending set only through explicit resolution — never by
// being silently dropped. The triggering mutation is consumed into the
// record; resolving synthesizes a fresh mutation when the local side wins.
type ConflictRecord struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`

	// LocalMutation is the mutation that could not be applied.
	LocalMutation MutationRecord `json:"localMutation"`

	// ServerSnapshot is the entity's server-side value at detection time.
	ServerSnapshot RemoteEntity `json:"serverSnapshot"`

	DetectedAt time.Time       `json:"detectedAt"`
	Resolution ResolutionState `json:"resolution"`
}

// Resolution is the user's (or facade's) decision for one conflict.
type Resolution struct {
	// Choice is "local", "server" or "merged".
	Choice string `json:"choice"`
	// Merged carries the caller-provided payload when Choice is "merged".
	Merged Fields `json:"merged,omitempty"`
}

const (
	ResolveLocal  = "local"
	ResolveServer = "server"
	ResolveMerged = "merged"
)