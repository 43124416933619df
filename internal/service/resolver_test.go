// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/mock"
	"github.com/selamgebre/birrsync/internal/store"
	"github.com/selamgebre/birrsync/models"
)

type resolverMocks struct {
	queue     *mock.MockMutationQueueRepository
	cache     *mock.MockCacheRepository
	conflicts *mock.MockConflictRepository
}

func newTestResolver(t *testing.T, ctrl *gomock.Controller, now time.Time) (*conflictResolver, resolverMocks) {
	t.Helper()

	m := resolverMocks{
		queue:     mock.NewMockMutationQueueRepository(ctrl),
		cache:     mock.NewMockCacheRepository(ctrl),
		conflicts: mock.NewMockConflictRepository(ctrl),
	}

	storages := &store.Storages{Queue: m.queue, Cache: m.cache, Conflicts: m.conflicts}
	resolver := NewConflictResolver(storages, nopNotifier{}, logger.Nop()).(*conflictResolver)
	resolver.now = func() time.Time { return now }

	return resolver, m
}

// updateConflict is a hard conflict between a local amount edit and a server
// amount edit on the same transaction.
func updateConflict() models.ConflictRecord {
	return models.ConflictRecord{
		ID:         "conf-1",
		EntityType: models.EntityTransaction,
		EntityID:   "tx-1",
		LocalMutation: models.MutationRecord{
			ID:           "mut-1",
			EntityType:   models.EntityTransaction,
			EntityID:     "tx-1",
			Operation:    models.OpUpdate,
			Payload:      models.Fields{"amount": 250.0},
			BaseVersion:  2,
			BaseSnapshot: models.Fields{"amount": 200.0, "title": "Taxi"},
		},
		ServerSnapshot: models.RemoteEntity{
			EntityType: models.EntityTransaction,
			EntityID:   "tx-1",
			Data:       models.Fields{"amount": 300.0, "title": "Taxi"},
			Version:    4,
		},
		Resolution: models.ResolutionUnresolved,
	}
}

func TestResolve_LocalWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := updateConflict()
	m.conflicts.EXPECT().Get(ctx, "conf-1").Return(conflict, nil)

	var enqueued models.MutationRecord
	gomock.InOrder(
		m.queue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, mt models.MutationRecord) error {
				enqueued = mt
				return nil
			}),
		m.conflicts.EXPECT().SetResolution(ctx, "conf-1", models.ResolutionLocalWins).Return(nil),
	)
	m.cache.EXPECT().
		Get(ctx, models.EntityTransaction, "tx-1").
		Return(models.CacheEntity{
			EntityType: models.EntityTransaction, EntityID: "tx-1",
			Data:          models.Fields{"amount": 250.0, "title": "Taxi"},
			ServerVersion: 2, LocalVersion: 3, Dirty: true,
		}, nil)
	m.cache.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)

	err := resolver.Resolve(ctx, "conf-1", models.Resolution{Choice: models.ResolveLocal})

	require.NoError(t, err)
	// the successor replays against the snapshot that won the race
	assert.Equal(t, models.OpUpdate, enqueued.Operation)
	assert.Equal(t, conflict.LocalMutation.Payload, enqueued.Payload)
	assert.Equal(t, int64(4), enqueued.BaseVersion)
	assert.Equal(t, conflict.ServerSnapshot.Data, enqueued.BaseSnapshot)
	assert.NotEqual(t, conflict.LocalMutation.ID, enqueued.ID)
}

func TestResolve_ServerWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := updateConflict()
	m.conflicts.EXPECT().Get(ctx, "conf-1").Return(conflict, nil)

	m.cache.EXPECT().Upsert(ctx, models.CacheEntity{
		EntityType:    models.EntityTransaction,
		EntityID:      "tx-1",
		Data:          conflict.ServerSnapshot.Data,
		ServerVersion: 4,
		LocalVersion:  4,
		UpdatedAt:     now,
	}).Return(nil)
	m.conflicts.EXPECT().SetResolution(ctx, "conf-1", models.ResolutionServerWins).Return(nil)

	err := resolver.Resolve(ctx, "conf-1", models.Resolution{Choice: models.ResolveServer})

	require.NoError(t, err)
}

func TestResolve_ServerWins_RecordNeverExisted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := updateConflict()
	conflict.ServerSnapshot = models.RemoteEntity{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
	}

	m.conflicts.EXPECT().Get(ctx, "conf-1").Return(conflict, nil)
	m.cache.EXPECT().Delete(ctx, models.EntityTransaction, "tx-1").Return(nil)
	m.conflicts.EXPECT().SetResolution(ctx, "conf-1", models.ResolutionServerWins).Return(nil)

	err := resolver.Resolve(ctx, "conf-1", models.Resolution{Choice: models.ResolveServer})

	require.NoError(t, err)
}

func TestResolve_MergedPayloadRequeued(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := updateConflict()
	merged := models.Fields{"amount": 275.0}

	m.conflicts.EXPECT().Get(ctx, "conf-1").Return(conflict, nil)

	var enqueued models.MutationRecord
	m.queue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, mt models.MutationRecord) error {
			enqueued = mt
			return nil
		})
	m.cache.EXPECT().
		Get(ctx, models.EntityTransaction, "tx-1").
		Return(models.CacheEntity{}, store.ErrCacheEntityNotFound)
	m.cache.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	m.conflicts.EXPECT().SetResolution(ctx, "conf-1", models.ResolutionMerged).Return(nil)

	err := resolver.Resolve(ctx, "conf-1", models.Resolution{
		Choice: models.ResolveMerged,
		Merged: merged,
	})

	require.NoError(t, err)
	assert.Equal(t, merged, enqueued.Payload)
	assert.Equal(t, int64(4), enqueued.BaseVersion)
}

func TestResolve_MergedWithoutPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	m.conflicts.EXPECT().Get(ctx, "conf-1").Return(updateConflict(), nil)

	err := resolver.Resolve(ctx, "conf-1", models.Resolution{Choice: models.ResolveMerged})

	assert.ErrorIs(t, err, ErrMissingMergedPayload)
}

func TestResolve_CreateCollisionBecomesUpdate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := models.ConflictRecord{
		ID:         "conf-2",
		EntityType: models.EntityAccount,
		EntityID:   "acc-1",
		LocalMutation: models.MutationRecord{
			ID: "mut-2", EntityType: models.EntityAccount, EntityID: "acc-1",
			Operation: models.OpCreate,
			Payload:   models.Fields{"name": "Cash", "balance": 500.0},
		},
		ServerSnapshot: models.RemoteEntity{
			EntityType: models.EntityAccount, EntityID: "acc-1",
			Data: models.Fields{"name": "Petty cash", "balance": 100.0}, Version: 2,
		},
		Resolution: models.ResolutionUnresolved,
	}

	m.conflicts.EXPECT().Get(ctx, "conf-2").Return(conflict, nil)

	var enqueued models.MutationRecord
	m.queue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, mt models.MutationRecord) error {
			enqueued = mt
			return nil
		})
	m.cache.EXPECT().Get(ctx, models.EntityAccount, "acc-1").
		Return(models.CacheEntity{EntityType: models.EntityAccount, EntityID: "acc-1"}, nil)
	m.cache.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	m.conflicts.EXPECT().SetResolution(ctx, "conf-2", models.ResolutionLocalWins).Return(nil)

	err := resolver.Resolve(ctx, "conf-2", models.Resolution{Choice: models.ResolveLocal})

	require.NoError(t, err)
	assert.Equal(t, models.OpUpdate, enqueued.Operation)
	assert.Equal(t, int64(2), enqueued.BaseVersion)
}

func TestResolve_UpdateOnDeletedBecomesCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := updateConflict()
	conflict.ServerSnapshot = models.RemoteEntity{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
		Version: 5, Deleted: true,
	}

	m.conflicts.EXPECT().Get(ctx, "conf-1").Return(conflict, nil)

	var enqueued models.MutationRecord
	m.queue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, mt models.MutationRecord) error {
			enqueued = mt
			return nil
		})
	m.cache.EXPECT().Get(ctx, models.EntityTransaction, "tx-1").
		Return(models.CacheEntity{}, store.ErrCacheEntityNotFound)
	m.cache.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	m.conflicts.EXPECT().SetResolution(ctx, "conf-1", models.ResolutionLocalWins).Return(nil)

	err := resolver.Resolve(ctx, "conf-1", models.Resolution{Choice: models.ResolveLocal})

	require.NoError(t, err)
	assert.Equal(t, models.OpCreate, enqueued.Operation)
	// recreate carries the base state with the local edit folded in
	assert.Equal(t, models.Fields{"amount": 250.0, "title": "Taxi"}, enqueued.Payload)
}

// deleteConflict is a hard conflict between a local delete and a server edit
// on the same transaction.
func deleteConflict() models.ConflictRecord {
	return models.ConflictRecord{
		ID:         "conf-3",
		EntityType: models.EntityTransaction,
		EntityID:   "tx-1",
		LocalMutation: models.MutationRecord{
			ID:           "mut-3",
			EntityType:   models.EntityTransaction,
			EntityID:     "tx-1",
			Operation:    models.OpDelete,
			BaseVersion:  2,
			BaseSnapshot: models.Fields{"amount": 200.0, "title": "Taxi"},
		},
		ServerSnapshot: models.RemoteEntity{
			EntityType: models.EntityTransaction,
			EntityID:   "tx-1",
			Data:       models.Fields{"amount": 300.0, "title": "Taxi"},
			Version:    4,
		},
		Resolution: models.ResolutionUnresolved,
	}
}

func TestResolve_MergedOnDeleteKeepsRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := deleteConflict()
	merged := models.Fields{"amount": 300.0, "title": "Taxi (kept)"}

	m.conflicts.EXPECT().Get(ctx, "conf-3").Return(conflict, nil)

	var enqueued models.MutationRecord
	m.queue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, mt models.MutationRecord) error {
			enqueued = mt
			return nil
		})
	m.cache.EXPECT().Get(ctx, models.EntityTransaction, "tx-1").
		Return(models.CacheEntity{
			EntityType: models.EntityTransaction, EntityID: "tx-1",
			Data:          models.Fields{"amount": 200.0, "title": "Taxi"},
			ServerVersion: 2, LocalVersion: 3, Dirty: true, Deleted: true,
		}, nil)
	var cached models.CacheEntity
	m.cache.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, e models.CacheEntity) error {
			cached = e
			return nil
		})
	m.conflicts.EXPECT().SetResolution(ctx, "conf-3", models.ResolutionMerged).Return(nil)

	err := resolver.Resolve(ctx, "conf-3", models.Resolution{
		Choice: models.ResolveMerged,
		Merged: merged,
	})

	require.NoError(t, err)
	// choosing a merged value means keeping the record, not deleting it
	assert.Equal(t, models.OpUpdate, enqueued.Operation)
	assert.Equal(t, merged, enqueued.Payload)
	assert.Equal(t, int64(4), enqueued.BaseVersion)
	assert.False(t, cached.Deleted)
	assert.Equal(t, models.Fields{"amount": 300.0, "title": "Taxi (kept)"}, cached.Data)
}

func TestResolve_MergedOnDeleteRecreatesGoneRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := deleteConflict()
	conflict.ServerSnapshot = models.RemoteEntity{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
		Version: 5, Deleted: true,
	}
	merged := models.Fields{"amount": 310.0}

	m.conflicts.EXPECT().Get(ctx, "conf-3").Return(conflict, nil)

	var enqueued models.MutationRecord
	m.queue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, mt models.MutationRecord) error {
			enqueued = mt
			return nil
		})
	m.cache.EXPECT().Get(ctx, models.EntityTransaction, "tx-1").
		Return(models.CacheEntity{}, store.ErrCacheEntityNotFound)
	m.cache.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	m.conflicts.EXPECT().SetResolution(ctx, "conf-3", models.ResolutionMerged).Return(nil)

	err := resolver.Resolve(ctx, "conf-3", models.Resolution{
		Choice: models.ResolveMerged,
		Merged: merged,
	})

	require.NoError(t, err)
	assert.Equal(t, models.OpCreate, enqueued.Operation)
	// recreate carries the base state with the merged value folded in
	assert.Equal(t, models.Fields{"amount": 310.0, "title": "Taxi"}, enqueued.Payload)
}

func TestResolve_LocalWinsOnDeleteReplaysDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := deleteConflict()
	m.conflicts.EXPECT().Get(ctx, "conf-3").Return(conflict, nil)

	var enqueued models.MutationRecord
	m.queue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, mt models.MutationRecord) error {
			enqueued = mt
			return nil
		})
	m.cache.EXPECT().Get(ctx, models.EntityTransaction, "tx-1").
		Return(models.CacheEntity{
			EntityType: models.EntityTransaction, EntityID: "tx-1",
			Data:          models.Fields{"amount": 200.0, "title": "Taxi"},
			ServerVersion: 2, LocalVersion: 3, Dirty: true, Deleted: true,
		}, nil)
	m.cache.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	m.conflicts.EXPECT().SetResolution(ctx, "conf-3", models.ResolutionLocalWins).Return(nil)

	err := resolver.Resolve(ctx, "conf-3", models.Resolution{Choice: models.ResolveLocal})

	require.NoError(t, err)
	assert.Equal(t, models.OpDelete, enqueued.Operation)
	assert.Nil(t, enqueued.Payload)
	assert.Equal(t, int64(4), enqueued.BaseVersion)
}

func TestResolve_AlreadyResolved(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	conflict := updateConflict()
	conflict.Resolution = models.ResolutionServerWins

	m.conflicts.EXPECT().Get(ctx, "conf-1").Return(conflict, nil)

	err := resolver.Resolve(ctx, "conf-1", models.Resolution{Choice: models.ResolveLocal})

	assert.ErrorIs(t, err, store.ErrConflictAlreadyResolved)
}

func TestResolve_InvalidChoice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	m.conflicts.EXPECT().Get(ctx, "conf-1").Return(updateConflict(), nil)

	err := resolver.Resolve(ctx, "conf-1", models.Resolution{Choice: "coin-flip"})

	assert.ErrorIs(t, err, ErrInvalidResolutionChoice)
}

func TestResolve_EnqueueFailureKeepsConflictPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	dbErr := errors.New("disk I/O error")

	m.conflicts.EXPECT().Get(ctx, "conf-1").Return(updateConflict(), nil)
	m.queue.EXPECT().Enqueue(ctx, gomock.Any()).Return(dbErr)
	// SetResolution is never reached, so a retry can still resolve it

	err := resolver.Resolve(ctx, "conf-1", models.Resolution{Choice: models.ResolveLocal})

	assert.ErrorIs(t, err, dbErr)
}

func TestListConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	resolver, m := newTestResolver(t, ctrl, now)
	ctx := testContext()

	want := []models.ConflictRecord{updateConflict()}
	m.conflicts.EXPECT().ListUnresolved(ctx).Return(want, nil)

	got, err := resolver.ListConflicts(ctx)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}