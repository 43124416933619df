package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selamgebre/birrsync/models"
)

func TestDefault_CoversAllEntityTypes(t *testing.T) {
	r := Default()

	for _, tag := range []models.EntityType{
		models.EntityAccount,
		models.EntityTransaction,
		models.EntityGoal,
		models.EntityBudgetCategory,
		models.EntityIqub,
		models.EntityIddir,
		models.EntityRecurringTransaction,
	} {
		d, err := r.Lookup(tag)
		require.NoError(t, err, "descriptor missing for %q", tag)
		assert.NotEmpty(t, d.Endpoint)
		assert.NotNil(t, d.Merge)
	}
}

func TestLookup_UnknownType(t *testing.T) {
	r := Default()

	_, err := r.Lookup("subscription")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEntityType)
	assert.False(t, r.Known("subscription"))
}

func TestMergeLastWriterWins_NonOverlapping(t *testing.T) {
	server := models.Fields{"title": "Groceries", "amount": 450.0, "currency": "ETB"}
	payload := models.Fields{"title": "Weekly groceries"}

	merged, err := MergeLastWriterWins(server, payload)
	require.NoError(t, err)

	assert.Equal(t, "Weekly groceries", merged["title"])
	assert.Equal(t, 450.0, merged["amount"])
	assert.Equal(t, "ETB", merged["currency"])

	// inputs stay untouched
	assert.Equal(t, "Groceries", server["title"])
}

func TestMergeLastWriterWins_NilServer(t *testing.T) {
	merged, err := MergeLastWriterWins(nil, models.Fields{"name": "Meskel iqub"})
	require.NoError(t, err)
	assert.Equal(t, "Meskel iqub", merged["name"])
}
