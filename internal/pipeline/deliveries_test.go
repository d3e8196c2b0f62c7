package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveriesFromRowsAliases(t *testing.T) {
	rows := []map[string]string{
		{"supplier": "Würth", "article_id": "S-8", "description": "Schraube 8x80", "quantity": "500", "unit": "Stk"},
		{"supplier": "Würth", "article_id": "S-9", "description": "Dübel", "quantity": "n/a", "unit": "Stk"},
		{"supplier": "Baustoff Müller", "article_id": "", "description": "Estrich", "quantity": "1 234,5", "unit": " kg "},
	}
	recs, err := DeliveriesFromRows(rows, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, 10, recs[0].LineNo)
	assert.Equal(t, "Würth", recs[0].Supplier)
	assert.Equal(t, "S-8", recs[0].ArticleID)
	assert.Equal(t, "Schraube 8x80", recs[0].Description)
	assert.Equal(t, 500.0, recs[0].Quantity)
	assert.Equal(t, 0.0, recs[1].Quantity)
	assert.Equal(t, 1234.5, recs[2].Quantity)
	assert.Equal(t, "kg", recs[2].SourceUnit)
	assert.Equal(t, 12, recs[2].LineNo)
}

func TestDeliveriesFromRowsNeedsDescription(t *testing.T) {
	_, err := DeliveriesFromRows([]map[string]string{{"Menge": "1"}}, 1)
	assert.Error(t, err)
}

func TestLoadDeliveriesConcatenates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "weight.csv")
	b := filepath.Join(dir, "quantity.csv")
	require.NoError(t, os.WriteFile(a, []byte("Lieferant;Artikel-Nummer;Artikel;Menge;Einheit\nA;1;Beton;2,5;m3\nA;2;Kies;10;kg\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("Lieferant,Artikel,Menge,Einheit\nB,Ziegel,120,Stk\n"), 0o644))

	recs, err := LoadDeliveries(a, b)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{recs[0].LineNo, recs[1].LineNo, recs[2].LineNo})
	assert.Equal(t, 2.5, recs[0].Quantity)
	assert.Equal(t, "Ziegel", recs[2].Description)
	assert.Equal(t, "", recs[2].ArticleID)
}

func TestLoadDeliveriesErrors(t *testing.T) {
	_, err := LoadDeliveries()
	assert.ErrorIs(t, err, ErrNoDeliveries)

	_, err = LoadDeliveries(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestLoadDeliveriesReader(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("Artikel;Menge;Einheit\nGipskarton;12;m2\n")
	recs, err := LoadDeliveriesReader(strings.NewReader(buf.String()), "upload.csv", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "m2", recs[0].SourceUnit)
}
