package repository

import (
	"context"
	"testing"

	"skystream/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func neoObject(id, date string, missKm float64) *models.NeowsObject {
	return &models.NeowsObject{
		NeoID:             id,
		Name:              "(" + id + ")",
		EstimatedDiameter: datatypes.JSON(`{"kilometers":{"estimated_diameter_min":0.1,"estimated_diameter_max":0.3}}`),
		CloseApproach:     datatypes.JSON(`{"close_approach_date":"` + date + `"}`),
		OrbitData:         datatypes.JSON(`{"orbit_id":"1"}`),
		CloseApproachDate: date,
		MissDistanceKm:    missKm,
	}
}

func TestNEORepository_UpsertUpdatesNonKeyFields(t *testing.T) {
	repo := NewNEORepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Upsert(ctx, neoObject("3542519", "2024-01-02", 500000))
	require.NoError(t, err)
	assert.True(t, created)

	changed := neoObject("3542519", "2024-01-03", 120000)
	changed.IsPotentiallyHazardous = true
	created, err = repo.Upsert(ctx, changed)
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	items, total, err := repo.ListByApproachWindow(ctx, "2024-01-03", "2024-01-03", PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsPotentiallyHazardous)
	assert.Equal(t, 120000.0, items[0].MissDistanceKm)
}

func TestNEORepository_ListByApproachWindowOrdersAndPaginates(t *testing.T) {
	repo := NewNEORepository(setupTestDB(t))
	ctx := context.Background()

	for _, o := range []*models.NeowsObject{
		neoObject("a", "2024-01-01", 300),
		neoObject("b", "2024-01-02", 100),
		neoObject("c", "2024-01-03", 200),
		neoObject("d", "2024-01-09", 50),
	} {
		_, err := repo.Upsert(ctx, o)
		require.NoError(t, err)
	}

	page1, total, err := repo.ListByApproachWindow(ctx, "2024-01-01", "2024-01-03", PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page1, 2)
	assert.Equal(t, "b", page1[0].NeoID)
	assert.Equal(t, "c", page1[1].NeoID)

	page2, _, err := repo.ListByApproachWindow(ctx, "2024-01-01", "2024-01-03", PageRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "a", page2[0].NeoID)

	all, err := repo.AllByApproachWindow(ctx, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "d", all[0].NeoID)
}
