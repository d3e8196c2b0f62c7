package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/fileio"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/util"
)

const reportSheet = "CO2e Report"

// ExportReport writes rows to outputPath. The extension picks the format:
// .xlsx, or .csv as ';'-separated UTF-8 with BOM.
func ExportReport(rows []internal.ReportRow, outputPath string) error {
	ext := strings.ToLower(filepath.Ext(outputPath))
	if ext != ".xlsx" && ext != ".csv" {
		return fmt.Errorf("unsupported report format %q", ext)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	if ext == ".csv" {
		err = WriteCSV(f, rows)
	} else {
		err = WriteXLSX(f, rows)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func WriteXLSX(w io.Writer, rows []internal.ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, reportSheet); err != nil {
		return err
	}
	sheet = reportSheet

	for i, h := range internal.ReportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(internal.ReportColumns), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}

	for i, row := range rows {
		r := i + 2
		for col, value := range rowValues(row) {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return f.Write(w)
}

// WriteCSV writes the report the way spreadsheet users in DE expect it:
// BOM, ';' separator, '.' decimals.
func WriteCSV(w io.Writer, rows []internal.ReportRow) error {
	if _, err := w.Write([]byte("\xEF\xBB\xBF")); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(internal.ReportColumns); err != nil {
		return err
	}
	for _, row := range rows {
		values := rowValues(row)
		rec := make([]string, len(values))
		for i, v := range values {
			switch t := v.(type) {
			case float64:
				rec[i] = util.FormatFloat(t)
			case string:
				rec[i] = t
			default:
				rec[i] = fmt.Sprint(t)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func rowValues(row internal.ReportRow) []any {
	return []any{
		row.Supplier,
		row.ArticleID,
		row.Description,
		row.Quantity,
		row.SourceUnit,
		row.MatchedMaterial,
		row.MatchedCategory,
		row.Similarity,
		row.ReferenceUnit,
		row.MaterialCO2e,
		row.TransportCO2e,
		row.TotalCO2e,
		row.Status,
	}
}

// LoadReport reads a report written by ExportReport back into rows, so KPIs
// can be computed for reports produced elsewhere.
func LoadReport(path string) ([]internal.ReportRow, error) {
	rows, err := fileio.ReadFileMaps(path, 1)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	cols := fileio.NewColumns(rows)
	if len(rows) > 0 && !cols.Has("total_co2e") {
		return nil, fmt.Errorf("load report %s: missing column %q", path, "total_co2e")
	}
	out := make([]internal.ReportRow, 0, len(rows))
	for i, m := range rows {
		status := cols.Get(m, "calculation_status")
		out = append(out, internal.ReportRow{
			LineNo:          i + 1,
			Supplier:        cols.Get(m, "Lieferant"),
			ArticleID:       cols.Get(m, "Artikel-Nummer"),
			Description:     cols.Get(m, "Artikel"),
			Quantity:        util.LenientFloat(cols.Get(m, "Menge")),
			SourceUnit:      cols.Get(m, "Einheit"),
			MatchedMaterial: cols.Get(m, "matched_material"),
			MatchedCategory: cols.Get(m, "matched_category"),
			Similarity:      util.LenientFloat(cols.Get(m, "similarity_score")),
			ReferenceUnit:   cols.Get(m, "matched_oeko_unit"),
			MaterialCO2e:    util.LenientFloat(cols.Get(m, "calculated_co2e_a1_a3")),
			TransportCO2e:   util.LenientFloat(cols.Get(m, "calculated_co2e_a4")),
			TotalCO2e:       util.LenientFloat(cols.Get(m, "total_co2e")),
			Status:          status,
			Converted:       strings.Contains(status, "Converted:"),
		})
	}
	return out, nil
}
