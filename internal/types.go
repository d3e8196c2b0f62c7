package internal

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	NoMatch        = "NO_MATCH"
	UnknownValue   = "Unknown"
	MissingGWPText = "MISSING"
)

type DeliveryRecord struct {
	LineNo      int     `json:"lineNo"`
	Supplier    string  `json:"supplier"`
	ArticleID   string  `json:"articleId"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	SourceUnit  string  `json:"sourceUnit"`
}

type FactorState int

const (
	FactorKnown FactorState = iota
	FactorMissing
	FactorInvalid
)

// EmissionFactor is a GWP value per reference unit. Missing and invalid
// factors are distinct so the calculator can report them separately.
type EmissionFactor struct {
	State FactorState
	Value float64
	Raw   string
}

func KnownEmissionFactor(v float64) EmissionFactor {
	if math.IsNaN(v) {
		return MissingEmissionFactor()
	}
	if math.IsInf(v, 0) {
		return EmissionFactor{State: FactorInvalid, Raw: "inf"}
	}
	return EmissionFactor{State: FactorKnown, Value: v}
}

func MissingEmissionFactor() EmissionFactor {
	return EmissionFactor{State: FactorMissing, Raw: MissingGWPText}
}

func InvalidEmissionFactor(raw string) EmissionFactor {
	return EmissionFactor{State: FactorInvalid, Raw: raw}
}

func (f EmissionFactor) Known() bool { return f.State == FactorKnown }

func (f EmissionFactor) String() string {
	switch f.State {
	case FactorKnown:
		return strconv.FormatFloat(f.Value, 'f', -1, 64)
	case FactorMissing:
		return MissingGWPText
	default:
		return f.Raw
	}
}

type CatalogEntry struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	EmissionFactor EmissionFactor `json:"-"`
	ReferenceUnit  string         `json:"referenceUnit"`
	BulkDensity    *float64       `json:"bulkDensity,omitempty"`
	Category       string         `json:"category"`
	Module         string         `json:"module"`
}

type MatchResult struct {
	Entry      *CatalogEntry
	Similarity float64
}

func (m MatchResult) Matched() bool { return m.Entry != nil }

func (m MatchResult) MaterialName() string {
	if m.Entry == nil {
		return NoMatch
	}
	return m.Entry.Name
}

func (m MatchResult) Category() string {
	if m.Entry == nil || strings.TrimSpace(m.Entry.Category) == "" {
		return UnknownValue
	}
	return m.Entry.Category
}

func (m MatchResult) ReferenceUnit() string {
	if m.Entry == nil || strings.TrimSpace(m.Entry.ReferenceUnit) == "" {
		return UnknownValue
	}
	return m.Entry.ReferenceUnit
}

func (m MatchResult) BulkDensity() *float64 {
	if m.Entry == nil {
		return nil
	}
	return m.Entry.BulkDensity
}

func (m MatchResult) EmissionFactor() EmissionFactor {
	if m.Entry == nil {
		return MissingEmissionFactor()
	}
	return m.Entry.EmissionFactor
}

type ConversionOutcome struct {
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	Narrative string  `json:"narrative"`
	Converted bool    `json:"converted"`
}

type CalculationResult struct {
	MaterialCO2e  float64 `json:"materialCo2e"`
	TransportCO2e float64 `json:"transportCo2e"`
	TotalCO2e     float64 `json:"totalCo2e"`
	Status        string  `json:"status"`
}

// ReportRow is one line of the final report, in column order.
type ReportRow struct {
	LineNo          int     `json:"lineNo"`
	Supplier        string  `json:"Lieferant"`
	ArticleID       string  `json:"Artikel-Nummer"`
	Description     string  `json:"Artikel"`
	Quantity        float64 `json:"Menge"`
	SourceUnit      string  `json:"Einheit"`
	MatchedMaterial string  `json:"matched_material"`
	MatchedCategory string  `json:"matched_category"`
	Similarity      float64 `json:"similarity_score"`
	ReferenceUnit   string  `json:"matched_oeko_unit"`
	MaterialCO2e    float64 `json:"calculated_co2e_a1_a3"`
	TransportCO2e   float64 `json:"calculated_co2e_a4"`
	TotalCO2e       float64 `json:"total_co2e"`
	Status          string  `json:"calculation_status"`
	Converted       bool    `json:"-"`
}

var ReportColumns = []string{
	"Lieferant",
	"Artikel-Nummer",
	"Artikel",
	"Menge",
	"Einheit",
	"matched_material",
	"matched_category",
	"similarity_score",
	"matched_oeko_unit",
	"calculated_co2e_a1_a3",
	"calculated_co2e_a4",
	"total_co2e",
	"calculation_status",
}

type SupplierTotal struct {
	Supplier  string  `json:"supplier"`
	Items     int     `json:"items"`
	Quantity  float64 `json:"quantity"`
	TotalCO2e float64 `json:"totalCo2e"`
}

type RunSummary struct {
	TotalItems      int             `json:"totalItems"`
	SuccessItems    int             `json:"successItems"`
	FailedItems     int             `json:"failedItems"`
	ConvertedItems  int             `json:"convertedItems"`
	NoMatchItems    int             `json:"noMatchItems"`
	SuccessRatePct  float64         `json:"successRatePct"`
	TotalQuantity   float64         `json:"totalQuantity"`
	MaterialCO2e    float64         `json:"materialCo2e"`
	TransportCO2e   float64         `json:"transportCo2e"`
	TotalCO2e       float64         `json:"totalCo2e"`
	MaterialSharePc float64         `json:"materialSharePct"`
	Intensity       float64         `json:"intensity"`
	MeanSimilarity  float64         `json:"meanSimilarity"`
	StatusBreakdown map[string]int  `json:"statusBreakdown"`
	Suppliers       []SupplierTotal `json:"suppliers"`
	TopEmitters     []ReportRow     `json:"topEmitters"`
}

type RunRecord struct {
	ID            int64      `json:"id"`
	TraceID       string     `json:"traceId"`
	Module        string     `json:"module"`
	CatalogCount  int        `json:"catalogCount"`
	DeliveryCount int        `json:"deliveryCount"`
	Summary       RunSummary `json:"summary"`
	Timings       Timings    `json:"timings"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type Timings struct {
	PrepareMs float64 `json:"prepareMs"`
	MatchMs   float64 `json:"matchMs"`
	CalcMs    float64 `json:"calcMs"`
	TotalMs   float64 `json:"totalMs"`
}
