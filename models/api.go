// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package models

// ChangeRequest is the facade's wire form of a local edit. It carries exactly
// what AuthoringService.RecordChange needs.
type ChangeRequest struct {
	EntityType EntityType `json:"entityType"`
	// EntityID may be empty for creates; an ID is generated then.
	EntityID  string    `json:"entityId,omitempty"`
	Operation Operation `json:"operation"`
	Payload   Fields    `json:"payload,omitempty"`
}

// EntityListResponse wraps a cache listing with its length, so the PWA does
// not have to special-case an empty list against a null body.
type EntityListResponse struct {
	Entities []CacheEntity `json:"entities"`
	Length   int           `json:"length"`
}

// MutationListResponse wraps the failed-permanent queue listing.
type MutationListResponse struct {
	Mutations []MutationRecord `json:"mutations"`
	Length    int              `json:"length"`
}

// ConflictListResponse wraps the unresolved conflict listing.
type ConflictListResponse struct {
	Conflicts []ConflictRecord `json:"conflicts"`
	Length    int              `json:"length"`
}