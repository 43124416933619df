// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package store

const (
	enqueueMutation = `
		INSERT INTO mutation_queue (
			id,
			entity_type,
			entity_id,
			operation,
			payload,
			base_version,
			base_snapshot,
			created_at,
			attempts,
			next_attempt_at,
			status,
			last_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	selectMutationColumns = `
		SELECT
			id,
			entity_type,
			entity_id,
			operation,
			payload,
			base_version,
			base_snapshot,
			created_at,
			attempts,
			next_attempt_at,
			status,
			last_error
		FROM mutation_queue`

	listActiveMutations = selectMutationColumns + `
		WHERE status IN ('pending', 'failed-retryable')
		ORDER BY seq;`

	listFailedPermanentMutations = selectMutationColumns + `
		WHERE status = 'failed-permanent'
		ORDER BY seq;`

	getMutation = selectMutationColumns + `
		WHERE id = ?;`

	markMutationInFlight = `
		UPDATE mutation_queue
		SET status = 'in-flight'
		WHERE id = ?;`

	completeMutation = `
		DELETE FROM mutation_queue
		WHERE id = ?;`

	markMutationRetry = `
		UPDATE mutation_queue SET
			status          = 'failed-retryable',
			attempts        = ?,
			next_attempt_at = ?,
			last_error      = ?
		WHERE id = ?;`

	markMutationPermanent = `
		UPDATE mutation_queue SET
			status     = 'failed-permanent',
			attempts   = ?,
			last_error = ?
		WHERE id = ?;`

	reviveMutation = `
		UPDATE mutation_queue SET
			status          = 'pending',
			attempts        = 0,
			next_attempt_at = NULL,
			last_error      = ''
		WHERE id = ? AND status = 'failed-permanent';`

	resetInFlightMutations = `
		UPDATE mutation_queue
		SET status = 'pending'
		WHERE status = 'in-flight';`

	upsertCacheEntity = `
		INSERT INTO entity_cache (
			entity_type,
			entity_id,
			data,
			server_version,
			local_version,
			dirty,
			deleted,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			data           = excluded.data,
			server_version = excluded.server_version,
			local_version  = excluded.local_version,
			dirty          = excluded.dirty,
			deleted        = excluded.deleted,
			updated_at     = excluded.updated_at;`

	selectCacheColumns = `
		SELECT
			entity_type,
			entity_id,
			data,
			server_version,
			local_version,
			dirty,
			deleted,
			updated_at
		FROM entity_cache`

	getCacheEntity = selectCacheColumns + `
		WHERE entity_type = ? AND entity_id = ?;`

	listCacheEntitiesByType = selectCacheColumns + `
		WHERE entity_type = ? AND deleted = FALSE
		ORDER BY entity_id;`

	deleteCacheEntity = `
		DELETE FROM entity_cache
		WHERE entity_type = ? AND entity_id = ?;`

	saveConflict = `
		INSERT INTO conflicts (
			id,
			entity_type,
			entity_id,
			local_mutation,
			server_snapshot,
			detected_at,
			resolution
		) VALUES (?, ?, ?, ?, ?, ?, ?);`

	selectConflictColumns = `
		SELECT
			id,
			entity_type,
			entity_id,
			local_mutation,
			server_snapshot,
			detected_at,
			resolution
		FROM conflicts`

	getConflict = selectConflictColumns + `
		WHERE id = ?;`

	listUnresolvedConflicts = selectConflictColumns + `
		WHERE resolution = 'unresolved'
		ORDER BY detected_at;`

	setConflictResolution = `
		UPDATE conflicts
		SET resolution = ?
		WHERE id = ? AND resolution = 'unresolved';`
)