package pipeline

import (
	"sort"
	"strings"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/emission"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/util"
)

const reportPrecision = 4

// AssembleRow joins the stage outputs of one record into a report line.
// Similarity and the CO2e columns are rounded here and nowhere else.
func AssembleRow(rec internal.DeliveryRecord, match internal.MatchResult, conv internal.ConversionOutcome, calc internal.CalculationResult) internal.ReportRow {
	return internal.ReportRow{
		LineNo:          rec.LineNo,
		Supplier:        rec.Supplier,
		ArticleID:       rec.ArticleID,
		Description:     rec.Description,
		Quantity:        rec.Quantity,
		SourceUnit:      rec.SourceUnit,
		MatchedMaterial: match.MaterialName(),
		MatchedCategory: match.Category(),
		Similarity:      util.Round(match.Similarity, reportPrecision),
		ReferenceUnit:   match.ReferenceUnit(),
		MaterialCO2e:    util.Round(calc.MaterialCO2e, reportPrecision),
		TransportCO2e:   util.Round(calc.TransportCO2e, reportPrecision),
		TotalCO2e:       util.Round(calc.TotalCO2e, reportPrecision),
		Status:          calc.Status,
		Converted:       conv.Converted,
	}
}

// Summarize computes run KPIs over report rows. topN bounds the emitter list.
func Summarize(rows []internal.ReportRow, topN int) internal.RunSummary {
	s := internal.RunSummary{
		TotalItems:      len(rows),
		StatusBreakdown: map[string]int{},
	}
	if len(rows) == 0 {
		s.Suppliers = []internal.SupplierTotal{}
		s.TopEmitters = []internal.ReportRow{}
		return s
	}

	bySupplier := map[string]*internal.SupplierTotal{}
	var supplierOrder []string
	var simSum float64
	matched := 0

	for _, r := range rows {
		if emission.IsSuccess(r.Status) {
			s.SuccessItems++
		}
		if emission.IsConverted(r.Status) {
			s.ConvertedItems++
		}
		if r.MatchedMaterial == internal.NoMatch {
			s.NoMatchItems++
		} else {
			matched++
			simSum += r.Similarity
		}
		s.StatusBreakdown[string(emission.Classify(r.Status))]++

		s.TotalQuantity += r.Quantity
		s.MaterialCO2e += r.MaterialCO2e
		s.TransportCO2e += r.TransportCO2e
		s.TotalCO2e += r.TotalCO2e

		name := strings.TrimSpace(r.Supplier)
		if name == "" {
			name = internal.UnknownValue
		}
		st, ok := bySupplier[name]
		if !ok {
			st = &internal.SupplierTotal{Supplier: name}
			bySupplier[name] = st
			supplierOrder = append(supplierOrder, name)
		}
		st.Items++
		st.Quantity += r.Quantity
		st.TotalCO2e += r.TotalCO2e
	}

	s.FailedItems = s.TotalItems - s.SuccessItems
	s.SuccessRatePct = float64(s.SuccessItems) / float64(s.TotalItems) * 100
	if s.TotalCO2e > 0 {
		s.MaterialSharePc = s.MaterialCO2e / s.TotalCO2e * 100
	}
	if s.TotalQuantity > 0 {
		s.Intensity = s.TotalCO2e / s.TotalQuantity
	}
	if matched > 0 {
		s.MeanSimilarity = simSum / float64(matched)
	}

	s.Suppliers = make([]internal.SupplierTotal, 0, len(supplierOrder))
	for _, name := range supplierOrder {
		s.Suppliers = append(s.Suppliers, *bySupplier[name])
	}
	sort.SliceStable(s.Suppliers, func(i, j int) bool {
		return s.Suppliers[i].TotalCO2e > s.Suppliers[j].TotalCO2e
	})

	s.TopEmitters = TopEmitters(rows, topN)
	return s
}

// TopEmitters returns the n rows with the highest total CO2e; equal totals
// keep report order.
func TopEmitters(rows []internal.ReportRow, n int) []internal.ReportRow {
	if n <= 0 {
		return []internal.ReportRow{}
	}
	sorted := make([]internal.ReportRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalCO2e > sorted[j].TotalCO2e
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
