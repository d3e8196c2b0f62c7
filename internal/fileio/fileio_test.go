package fileio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestReadCSVLatin1Semicolon(t *testing.T) {
	utf8Text := "UUID;Name (de);GWPtotal (A2);Bezugseinheit;Modul\n" +
		"u-1;Wärmedämmverbundsystem;12,5;m2;A1-A3\n" +
		"u-2;Beton C25/30;;m3;A1-A3\n" +
		";;;;\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(utf8Text)
	require.NoError(t, err)

	rows, err := ReadAnyMaps(strings.NewReader(latin1), "OBD_2024.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Wärmedämmverbundsystem", rows[0]["Name (de)"])
	assert.Equal(t, "12,5", rows[0]["GWPtotal (A2)"])
	assert.Equal(t, "", rows[1]["GWPtotal (A2)"])
	assert.Equal(t, "A1-A3", rows[1]["Modul"])
}

func TestReadCSVUTF8WithBOMAndCommas(t *testing.T) {
	data := "\xEF\xBB\xBFLieferant,Artikel,Menge,Einheit\nBaustoff Müller,\"Ziegel, NF\",120,Stk\n"
	rows, err := ReadAnyMaps(strings.NewReader(data), "deliveries.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Baustoff Müller", rows[0]["Lieferant"])
	assert.Equal(t, "Ziegel, NF", rows[0]["Artikel"])
	assert.Equal(t, "Stk", rows[0]["Einheit"])
}

func TestReadCSVBlankHeaderCells(t *testing.T) {
	rows, err := ReadAnyMaps(strings.NewReader("a;;c\n1;2;3\n"), "x.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0]["Column 2"])
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Lieferant", "Artikel-Nummer", "Artikel", "Menge", "Einheit"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Heidelberg", "A-100", "Transportbeton C25/30", 12.5, "m3"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Würth", "S-8", "Schraube 8x80", 500, "Stk"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	path := filepath.Join(t.TempDir(), "weight.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	rows, err := ReadFileMaps(path, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Transportbeton C25/30", rows[0]["Artikel"])
	assert.Equal(t, "12.5", rows[0]["Menge"])
	assert.Equal(t, "500", rows[1]["Menge"])
}

func TestReadAnyMapsUnsupported(t *testing.T) {
	_, err := ReadAnyMaps(strings.NewReader(""), "report.pdf", 1)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestReadFileMapsMissing(t *testing.T) {
	_, err := ReadFileMaps(filepath.Join(t.TempDir(), "missing.csv"), 1)
	assert.Error(t, err)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1,5;2;3")))
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb\tc")))
}
