package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/selamgebre/birrsync/internal/store"
	"github.com/selamgebre/birrsync/models"
)

func TestGetSyncStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	m.engine.EXPECT().
		Status(gomock.Any()).
		Return(models.SyncStatusSnapshot{Queued: 3, Failed: 1, Conflicts: 2, Online: true}, nil)

	recorder := serve(handler, http.MethodGet, "/api/sync/status", "")

	require.Equal(t, http.StatusOK, recorder.Code)

	var got models.SyncStatusSnapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, models.SyncStatusSnapshot{Queued: 3, Failed: 1, Conflicts: 2, Online: true}, got)
}

func TestSyncNow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	m.engine.EXPECT().
		Sync(gomock.Any()).
		Return(models.SyncResult{Applied: 2, Merged: 1}, nil)

	recorder := serve(handler, http.MethodPost, "/api/sync/now", "")

	require.Equal(t, http.StatusOK, recorder.Code)

	var got models.SyncResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, models.SyncResult{Applied: 2, Merged: 1}, got)
}

func TestListFailedMutations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	failed := []models.MutationRecord{
		{ID: "mut-1", Status: models.MutationFailedPermanent, LastError: "bad request: amount must be positive"},
	}
	m.engine.EXPECT().ListFailedMutations(gomock.Any()).Return(failed, nil)

	recorder := serve(handler, http.MethodGet, "/api/sync/mutations/failed", "")

	require.Equal(t, http.StatusOK, recorder.Code)

	var got models.MutationListResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Length)
	assert.Equal(t, "mut-1", got.Mutations[0].ID)
}

func TestRetryMutation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	m.engine.EXPECT().RetryMutation(gomock.Any(), "mut-1").Return(nil)

	recorder := serve(handler, http.MethodPost, "/api/sync/mutations/mut-1/retry", "")

	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestRetryMutation_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	m.engine.EXPECT().
		RetryMutation(gomock.Any(), "missing").
		Return(store.ErrMutationNotFound)

	recorder := serve(handler, http.MethodPost, "/api/sync/mutations/missing/retry", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDiscardMutation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	m.engine.EXPECT().DiscardMutation(gomock.Any(), "mut-1").Return(nil)

	recorder := serve(handler, http.MethodPost, "/api/sync/mutations/mut-1/discard", "")

	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestDiscardMutation_NotDiscardable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	m.engine.EXPECT().
		DiscardMutation(gomock.Any(), "mut-1").
		Return(store.ErrMutationNotRevivable)

	recorder := serve(handler, http.MethodPost, "/api/sync/mutations/mut-1/discard", "")

	assert.Equal(t, http.StatusConflict, recorder.Code)
}
