package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/emission"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/fileio"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/util"
)

// Ökobaudat export columns.
const (
	ColID          = "UUID"
	ColName        = "Name (de)"
	ColGWP         = "GWPtotal (A2)"
	ColGWPShort    = "GWP"
	ColUnit        = "Bezugseinheit"
	ColDensity     = "Rohdichte (kg/m3)"
	ColBulkDensity = "Schuettdichte (kg/m3)"
	ColCategory    = "Kategorie (original)"
	ColModule      = "Modul"
)

const DefaultModule = "A1-A3"

// LoadFile reads a catalog export and keeps the rows of module. An empty
// module keeps every row.
func LoadFile(path, module string, logger zerolog.Logger) ([]internal.CatalogEntry, error) {
	rows, err := fileio.ReadFileMaps(path, 1)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	entries, err := FromRows(rows, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	filtered := FilterModule(entries, module)
	logger.Info().
		Str("path", path).
		Int("rows", len(rows)).
		Int("entries", len(filtered)).
		Str("module", module).
		Msg("catalog loaded")
	return filtered, nil
}

// LoadReader is LoadFile for an upload; filename picks the format.
func LoadReader(r io.Reader, filename, module string, logger zerolog.Logger) ([]internal.CatalogEntry, error) {
	rows, err := fileio.ReadAnyMaps(r, filename, 1)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", filename, err)
	}
	entries, err := FromRows(rows, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", filename, err)
	}
	return FilterModule(entries, module), nil
}

// FromRows maps sheet rows to catalog entries. Rows without a name are
// skipped since they can never be matched.
func FromRows(rows []map[string]string, logger zerolog.Logger) ([]internal.CatalogEntry, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := fileio.NewColumns(rows)
	if !cols.Has(ColName) {
		return nil, fmt.Errorf("missing column %q", ColName)
	}
	if !cols.Has(ColGWP, ColGWPShort) {
		logger.Warn().Msg("catalog has no GWP column, every factor is missing")
	}

	out := make([]internal.CatalogEntry, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		name := strings.TrimSpace(cols.Get(row, ColName))
		if name == "" {
			skipped++
			continue
		}
		out = append(out, internal.CatalogEntry{
			ID:             cols.Get(row, ColID),
			Name:           name,
			EmissionFactor: emission.ParseEmissionFactor(cols.Get(row, ColGWP, ColGWPShort)),
			ReferenceUnit:  cols.Get(row, ColUnit),
			BulkDensity:    parseDensity(cols.Get(row, ColDensity, ColBulkDensity)),
			Category:       cols.Get(row, ColCategory),
			Module:         cols.Get(row, ColModule),
		})
	}
	if skipped > 0 {
		logger.Warn().Int("rows", skipped).Msg("catalog rows without name skipped")
	}
	return out, nil
}

func parseDensity(raw string) *float64 {
	v, ok := util.ParseDecimal(raw)
	if !ok {
		return nil
	}
	return util.FloatPtr(v)
}

// FilterModule keeps entries whose module equals module, ignoring case and
// surrounding space. When no entry carries a module at all the input is
// returned unchanged.
func FilterModule(entries []internal.CatalogEntry, module string) []internal.CatalogEntry {
	module = strings.TrimSpace(module)
	if module == "" {
		return entries
	}
	tagged := false
	out := make([]internal.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		m := strings.TrimSpace(e.Module)
		if m != "" {
			tagged = true
		}
		if strings.EqualFold(m, module) {
			out = append(out, e)
		}
	}
	if !tagged {
		return entries
	}
	return out
}
