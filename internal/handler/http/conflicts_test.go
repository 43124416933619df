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

func TestListConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	conflicts := []models.ConflictRecord{
		{
			ID:         "conf-1",
			EntityType: models.EntityTransaction,
			EntityID:   "tx-1",
			Resolution: models.ResolutionUnresolved,
		},
	}
	m.resolver.EXPECT().ListConflicts(gomock.Any()).Return(conflicts, nil)

	recorder := serve(handler, http.MethodGet, "/api/sync/conflicts", "")

	require.Equal(t, http.StatusOK, recorder.Code)

	var got models.ConflictListResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Length)
	assert.Equal(t, "conf-1", got.Conflicts[0].ID)
}

func TestResolveConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	m.resolver.EXPECT().
		Resolve(gomock.Any(), "conf-1", models.Resolution{Choice: models.ResolveServer}).
		Return(nil)

	recorder := serve(handler, http.MethodPost, "/api/sync/conflicts/conf-1/resolve", `{"choice":"server"}`)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestResolveConflict_MergedPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	m.resolver.EXPECT().
		Resolve(gomock.Any(), "conf-1", models.Resolution{
			Choice: models.ResolveMerged,
			Merged: models.Fields{"amount": 275.0},
		}).
		Return(nil)

	recorder := serve(handler, http.MethodPost, "/api/sync/conflicts/conf-1/resolve", `{"choice":"merged","merged":{"amount":275}}`)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestResolveConflict_InvalidJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, _ := newTestHandler(t, ctrl)

	recorder := serve(handler, http.MethodPost, "/api/sync/conflicts/conf-1/resolve", `{"choice":`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestResolveConflict_AlreadyResolved(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, m := newTestHandler(t, ctrl)

	m.resolver.EXPECT().
		Resolve(gomock.Any(), "conf-1", gomock.Any()).
		Return(store.ErrConflictAlreadyResolved)

	recorder := serve(handler, http.MethodPost, "/api/sync/conflicts/conf-1/resolve", `{"choice":"local"}`)

	assert.Equal(t, http.StatusConflict, recorder.Code)
}
