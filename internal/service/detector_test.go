package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selamgebre/birrsync/internal/registry"
	"github.com/selamgebre/birrsync/models"
)

func TestClassify_Create(t *testing.T) {
	tests := []struct {
		name   string
		server models.RemoteEntity
		want   models.ConflictClass
	}{
		{
			name:   "server never saw the id",
			server: models.RemoteEntity{},
			want:   models.ClassClean,
		},
		{
			name:   "id already exists",
			server: models.RemoteEntity{Version: 1, Data: models.Fields{"name": "other"}},
			want:   models.ClassHard,
		},
		{
			name:   "id existed and was deleted",
			server: models.RemoteEntity{Version: 2, Deleted: true},
			want:   models.ClassHard,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mutation := models.MutationRecord{
				Operation: models.OpCreate,
				Payload:   models.Fields{"name": "Cash"},
			}

			got, err := Classify(mutation, tc.server, registry.MergeLastWriterWins)

			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Class)
		})
	}
}

func TestClassify_Delete(t *testing.T) {
	tests := []struct {
		name     string
		mutation models.MutationRecord
		server   models.RemoteEntity
		want     models.ConflictClass
	}{
		{
			name:     "versions match",
			mutation: models.MutationRecord{Operation: models.OpDelete, BaseVersion: 3},
			server:   models.RemoteEntity{Version: 3, Data: models.Fields{"amount": 50.0}},
			want:     models.ClassClean,
		},
		{
			name:     "already deleted on server",
			mutation: models.MutationRecord{Operation: models.OpDelete, BaseVersion: 3},
			server:   models.RemoteEntity{Version: 4, Deleted: true},
			want:     models.ClassClean,
		},
		{
			name:     "server never held it",
			mutation: models.MutationRecord{Operation: models.OpDelete, BaseVersion: 1},
			server:   models.RemoteEntity{},
			want:     models.ClassClean,
		},
		{
			name:     "delete races a server edit",
			mutation: models.MutationRecord{Operation: models.OpDelete, BaseVersion: 3},
			server:   models.RemoteEntity{Version: 5, Data: models.Fields{"amount": 75.0}},
			want:     models.ClassHard,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.mutation, tc.server, registry.MergeLastWriterWins)

			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Class)
		})
	}
}

func TestClassify_Update(t *testing.T) {
	base := models.Fields{"title": "Groceries", "amount": 200.0, "note": "weekly"}

	tests := []struct {
		name       string
		mutation   models.MutationRecord
		server     models.RemoteEntity
		want       models.ConflictClass
		wantMerged models.Fields
	}{
		{
			name: "no concurrent change",
			mutation: models.MutationRecord{
				Operation: models.OpUpdate, BaseVersion: 2,
				Payload: models.Fields{"amount": 250.0}, BaseSnapshot: base,
			},
			server: models.RemoteEntity{Version: 2, Data: base},
			want:   models.ClassClean,
		},
		{
			name: "disjoint fields merge",
			mutation: models.MutationRecord{
				Operation: models.OpUpdate, BaseVersion: 2,
				Payload: models.Fields{"amount": 250.0}, BaseSnapshot: base,
			},
			server: models.RemoteEntity{
				Version: 3,
				Data:    models.Fields{"title": "Food", "amount": 200.0, "note": "weekly"},
			},
			want: models.ClassSoft,
			wantMerged: models.Fields{
				"title": "Food", "amount": 250.0, "note": "weekly",
			},
		},
		{
			name: "same field changed to different values",
			mutation: models.MutationRecord{
				Operation: models.OpUpdate, BaseVersion: 2,
				Payload: models.Fields{"amount": 250.0}, BaseSnapshot: base,
			},
			server: models.RemoteEntity{
				Version: 3,
				Data:    models.Fields{"title": "Groceries", "amount": 300.0, "note": "weekly"},
			},
			want: models.ClassHard,
		},
		{
			name: "both sides converge on the same value",
			mutation: models.MutationRecord{
				Operation: models.OpUpdate, BaseVersion: 2,
				Payload: models.Fields{"amount": 250.0}, BaseSnapshot: base,
			},
			server: models.RemoteEntity{
				Version: 3,
				Data:    models.Fields{"title": "Groceries", "amount": 250.0, "note": "weekly"},
			},
			want: models.ClassSoft,
			wantMerged: models.Fields{
				"title": "Groceries", "amount": 250.0, "note": "weekly",
			},
		},
		{
			name: "server dropped a field the local side edits",
			mutation: models.MutationRecord{
				Operation: models.OpUpdate, BaseVersion: 2,
				Payload: models.Fields{"note": "monthly"}, BaseSnapshot: base,
			},
			server: models.RemoteEntity{
				Version: 3,
				Data:    models.Fields{"title": "Groceries", "amount": 200.0},
			},
			want: models.ClassHard,
		},
		{
			name: "edit races a server delete",
			mutation: models.MutationRecord{
				Operation: models.OpUpdate, BaseVersion: 2,
				Payload: models.Fields{"amount": 250.0}, BaseSnapshot: base,
			},
			server: models.RemoteEntity{Version: 3, Deleted: true},
			want:   models.ClassHard,
		},
		{
			name: "edit of a record the server never had",
			mutation: models.MutationRecord{
				Operation: models.OpUpdate, BaseVersion: 1,
				Payload: models.Fields{"amount": 250.0}, BaseSnapshot: base,
			},
			server: models.RemoteEntity{},
			want:   models.ClassHard,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.mutation, tc.server, registry.MergeLastWriterWins)

			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Class)
			if tc.wantMerged != nil {
				assert.Equal(t, tc.wantMerged, got.Merged)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	mutation := models.MutationRecord{
		Operation: models.OpUpdate, BaseVersion: 2,
		Payload:      models.Fields{"amount": 250.0},
		BaseSnapshot: models.Fields{"amount": 200.0, "title": "Taxi"},
	}
	server := models.RemoteEntity{
		Version: 4,
		Data:    models.Fields{"amount": 200.0, "title": "Ride"},
	}

	first, err := Classify(mutation, server, registry.MergeLastWriterWins)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Classify(mutation, server, registry.MergeLastWriterWins)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestClassify_UnknownOperation(t *testing.T) {
	_, err := Classify(models.MutationRecord{Operation: "upsert"}, models.RemoteEntity{}, registry.MergeLastWriterWins)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}
