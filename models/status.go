// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package models

// SyncStatusSnapshot is the read-only aggregate exposed to the UI. It is
// derived on demand from the queue and conflict set, not stored.
type SyncStatusSnapshot struct {
	// Queued counts replayable mutations (pending + failed-retryable).
	Queued int `json:"queued"`
	// Failed counts failed-permanent mutations. Kept out of Queued so the UI
	// can distinguish "will resolve by itself" from "needs attention".
	Failed int `json:"failed"`
	// Conflicts counts unresolved ConflictRecords.
	Conflicts int `json:"conflicts"`
	// Online is the advisory connectivity flag. It never gates a
	// user-initiated sync.
	Online bool `json:"online"`
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	// Applied counts clean applies confirmed by the server.
	Applied int `json:"applied"`
	// Merged counts soft conflicts auto-merged and confirmed.
	Merged int `json:"merged"`
	// Conflicts counts hard conflicts recorded during the pass.
	Conflicts int `json:"conflicts"`
	// Deferred counts mutations left queued after a transient failure.
	Deferred int `json:"deferred"`
	// Failed counts mutations moved to failed-permanent during the pass.
	Failed int `json:"failed"`
}

// Empty reports whether the pass had nothing to do.
func (r SyncResult) Empty() bool {
	return r.Applied == 0 && r.Merged == 0 && r.Conflicts == 0 && r.Deferred == 0 && r.Failed == 0
}