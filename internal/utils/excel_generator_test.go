package utils

import (
	"bytes"
	"testing"

	"skystream/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteNEOWorkbook(t *testing.T) {
	records := []models.NeowsObject{
		{NeoID: "54016477", Name: "(2020 QQ)", CloseApproachDate: "2024-06-15", MissDistanceKm: 120000.5},
		{NeoID: "3542519", Name: "(2010 PK9)", CloseApproachDate: "2024-06-16", MissDistanceKm: 4500000.25, IsPotentiallyHazardous: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteNEOWorkbook(&buf, records, "2024-06-15", "2024-06-16"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{neoSheet, infoSheet}, f.GetSheetList())

	rows, err := f.GetRows(neoSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "NEO ID", rows[0][0])
	assert.Equal(t, "54016477", rows[1][0])
	assert.Equal(t, "yes", rows[2][4])

	total, err := f.GetCellValue(infoSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	window, err := f.GetCellValue(infoSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15 to 2024-06-16", window)
}

func TestWriteNEOWorkbook_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNEOWorkbook(&buf, nil, "2024-01-01", "2024-01-01"))
	assert.NotZero(t, buf.Len())
}
