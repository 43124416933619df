// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

// Package adapter provides the transport layer between the sync engine and
// the remote persistence API.
//
// The primary abstraction is [RemoteStore], which decouples the engine from
// the wire protocol. The package ships an HTTP/REST implementation
// ([NewHTTPRemoteStore]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrVersionConflict] for 409). The helpers
// [IsTransient] and [IsPermanent] implement the engine's retry taxonomy.
package adapter

import (
	"context"

	"github.com/selamgebre/birrsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_store_mock.go -package=mock

// RemoteStore defines transport-agnostic communication with the remote
// persistence API. Implementations are responsible for serialisation, auth
// header management, and mapping transport-level errors to the sentinel
// values defined in this package.
//
// Update and Delete carry an expected-version precondition; the remote store
// rejects a write whose precondition no longer matches, and implementations
// surface that as [ErrVersionConflict] so the engine can route the mutation
// to the conflict detector instead of retrying blindly.
type RemoteStore interface {
	// Fetch returns the server's current view of one entity. A record the
	// server has never seen comes back as a zero-version snapshot with no
	// error; a soft-deleted record comes back with Deleted=true. Transport
	// and server failures are returned as mapped errors.
	Fetch(ctx context.Context, entityType models.EntityType, entityID string) (models.RemoteEntity, error)

	// Create inserts a new entity under its client-generated ID and returns
	// the server-assigned snapshot (version 1). Returns [ErrIDCollision]
	// (wrapped) if the ID already exists server-side.
	Create(ctx context.Context, entityType models.EntityType, entityID string, data models.Fields) (models.RemoteEntity, error)

	// Update replaces the entity's data if its current server version equals
	// expectedVersion, and returns the confirmed snapshot with the bumped
	// version. Returns [ErrVersionConflict] (wrapped) when the precondition
	// fails.
	Update(ctx context.Context, entityType models.EntityType, entityID string, data models.Fields, expectedVersion int64) (models.RemoteEntity, error)

	// Delete soft-deletes the entity if its current server version equals
	// expectedVersion. Deleting a record the server does not hold succeeds
	// (idempotent delete). Returns [ErrVersionConflict] (wrapped) when the
	// precondition fails.
	Delete(ctx context.Context, entityType models.EntityType, entityID string, expectedVersion int64) error

	// Ping probes the remote API's health endpoint. Used by the connectivity
	// monitor; the resulting flag is advisory only and never gates a
	// user-initiated sync.
	Ping(ctx context.Context) error
}