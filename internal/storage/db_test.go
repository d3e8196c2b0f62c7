package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "co2scribe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertAndReadRun(t *testing.T) {
	db := openTestDB(t)

	created := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	run := internal.RunRecord{
		TraceID:       "trace-1",
		Module:        "A1-A3",
		CatalogCount:  3,
		DeliveryCount: 2,
		Summary: internal.RunSummary{
			TotalItems:      2,
			SuccessItems:    1,
			TotalCO2e:       3616.5,
			StatusBreakdown: map[string]int{"success_converted": 1, "gwp_missing": 1},
		},
		Timings:   internal.Timings{TotalMs: 12.5},
		CreatedAt: created,
	}
	rows := []internal.ReportRow{
		{LineNo: 2, Supplier: "Heidelberg", Description: "Estrich", Quantity: 3, SourceUnit: "kg", MatchedMaterial: "Zementestrich", MatchedCategory: "Estrich", ReferenceUnit: "kg", TransportCO2e: 0.24, TotalCO2e: 0.24, Status: "Error: GWP missing"},
		{LineNo: 1, Supplier: "Heidelberg", Description: "Beton", Quantity: 10, SourceUnit: "m2", MatchedMaterial: "Beton", MatchedCategory: "Beton", Similarity: 0.9731, ReferenceUnit: "m3", MaterialCO2e: 3615.7, TransportCO2e: 0.8, TotalCO2e: 3616.5, Status: "Success: Converted: 10.0 m² × 0.15m × 2400.0 kg/m³ = 3600.00 kg", Converted: true},
	}

	id, err := db.InsertRun(run, rows)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "trace-1", got.TraceID)
	assert.Equal(t, 3, got.CatalogCount)
	assert.Equal(t, 3616.5, got.Summary.TotalCO2e)
	assert.Equal(t, 1, got.Summary.StatusBreakdown["gwp_missing"])
	assert.Equal(t, 12.5, got.Timings.TotalMs)
	assert.True(t, created.Equal(got.CreatedAt))

	gotRows, err := db.GetRunRows(id)
	require.NoError(t, err)
	require.Len(t, gotRows, 2)
	assert.Equal(t, 2, gotRows[0].LineNo)
	assert.False(t, gotRows[0].Converted)
	assert.Equal(t, 1, gotRows[1].LineNo)
	assert.True(t, gotRows[1].Converted)
	assert.Equal(t, rows[1].Status, gotRows[1].Status)
	assert.Equal(t, 0.9731, gotRows[1].Similarity)
}

func TestInsertRunAllowsRepeatedLineNumbers(t *testing.T) {
	db := openTestDB(t)
	rows := []internal.ReportRow{
		{LineNo: 0, Description: "Beton", Status: "Error: GWP missing"},
		{LineNo: 0, Description: "Kies", Status: "Error: GWP missing"},
		{LineNo: 3, Description: "Ziegel", Status: "Error: Invalid quantity"},
		{LineNo: 3, Description: "Stahl", Status: "Error: Invalid quantity"},
	}

	id, err := db.InsertRun(internal.RunRecord{TraceID: "dup", Module: "A1-A3"}, rows)
	require.NoError(t, err)

	got, err := db.GetRunRows(id)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, r := range got {
		assert.Equal(t, rows[i].Description, r.Description)
		assert.Equal(t, rows[i].LineNo, r.LineNo)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	for _, trace := range []string{"a", "b", "c"} {
		_, err := db.InsertRun(internal.RunRecord{TraceID: trace, Module: "A1-A3"}, nil)
		require.NoError(t, err)
	}

	runs, err := db.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].TraceID)
	assert.Equal(t, "b", runs[1].TraceID)
	assert.False(t, runs[0].CreatedAt.IsZero())
}

func TestGetRunNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetRun(42)
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = db.GetRunRows(42)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetMetadata("catalog.last_loaded")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.SetMetadata("catalog.last_loaded", "OBD_2024_I.csv"))
	require.NoError(t, db.SetMetadata("catalog.last_loaded", "OBD_2025_I.csv"))
	v, err = db.GetMetadata("catalog.last_loaded")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "OBD_2025_I.csv", *v)
}
