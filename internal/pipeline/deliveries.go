package pipeline

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/fileio"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/util"
)

// Delivery note columns, German export names first.
var (
	colSupplier    = []string{"Lieferant", "supplier"}
	colArticleID   = []string{"Artikel-Nummer", "Artikelnummer", "article_id"}
	colDescription = []string{"Artikel", "Bezeichnung", "description"}
	colQuantity    = []string{"Menge", "quantity"}
	colUnit        = []string{"Einheit", "unit"}
)

var ErrNoDeliveries = errors.New("no delivery files given")

// LoadDeliveries reads and concatenates delivery files. Line numbers run
// across files in the order given.
func LoadDeliveries(paths ...string) ([]internal.DeliveryRecord, error) {
	if len(paths) == 0 {
		return nil, ErrNoDeliveries
	}
	var out []internal.DeliveryRecord
	for _, path := range paths {
		rows, err := fileio.ReadFileMaps(path, 1)
		if err != nil {
			return nil, fmt.Errorf("load deliveries: %w", err)
		}
		recs, err := DeliveriesFromRows(rows, len(out)+1)
		if err != nil {
			return nil, fmt.Errorf("load deliveries %s: %w", path, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// LoadDeliveriesReader reads one uploaded delivery file.
func LoadDeliveriesReader(r io.Reader, filename string, firstLine int) ([]internal.DeliveryRecord, error) {
	rows, err := fileio.ReadAnyMaps(r, filename, 1)
	if err != nil {
		return nil, fmt.Errorf("load deliveries %s: %w", filename, err)
	}
	recs, err := DeliveriesFromRows(rows, firstLine)
	if err != nil {
		return nil, fmt.Errorf("load deliveries %s: %w", filename, err)
	}
	return recs, nil
}

// DeliveriesFromRows maps sheet rows to records numbered from firstLine.
// Quantities that do not parse become 0.
func DeliveriesFromRows(rows []map[string]string, firstLine int) ([]internal.DeliveryRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := fileio.NewColumns(rows)
	if !cols.Has(colDescription...) {
		return nil, fmt.Errorf("missing column %q", colDescription[0])
	}

	out := make([]internal.DeliveryRecord, 0, len(rows))
	for i, row := range rows {
		out = append(out, internal.DeliveryRecord{
			LineNo:      firstLine + i,
			Supplier:    strings.TrimSpace(cols.Get(row, colSupplier...)),
			ArticleID:   strings.TrimSpace(cols.Get(row, colArticleID...)),
			Description: cols.Get(row, colDescription...),
			Quantity:    util.LenientFloat(cols.Get(row, colQuantity...)),
			SourceUnit:  strings.TrimSpace(cols.Get(row, colUnit...)),
		})
	}
	return out, nil
}
