package emission

import (
	"errors"
	"fmt"
	"math"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
)

const (
	UnitKg = "kg"
	UnitM3 = "m3"
)

const (
	StatusGWPMissing      = "Error: GWP missing"
	StatusInvalidGWP      = "Error: Invalid GWP value"
	StatusInvalidQuantity = "Error: Invalid quantity after conversion"
	StatusKgUnit          = "Success: kg unit"
	StatusM3Unit          = "Success: m³ unit"

	successPrefix = "Success: "
	failedPrefix  = "Error: Calculation failed - "
)

type Calculator struct {
	Transport TransportModel
}

func NewCalculator(transport TransportModel) Calculator {
	return Calculator{Transport: transport}
}

// Calculate produces the terminal per-record result. It never panics and
// never returns an error: failures are encoded in Status with zero material
// emissions. Transport applies to every record.
func (c Calculator) Calculate(rawQuantity float64, conv internal.ConversionOutcome, factor internal.EmissionFactor) internal.CalculationResult {
	material, status := Material(conv, factor)
	transport := c.Transport.Estimate(rawQuantity)
	return internal.CalculationResult{
		MaterialCO2e:  material,
		TransportCO2e: transport,
		TotalCO2e:     material + transport,
		Status:        status,
	}
}

// Material evaluates, in order: factor, quantity, unit, product.
func Material(conv internal.ConversionOutcome, factor internal.EmissionFactor) (co2e float64, status string) {
	defer func() {
		if r := recover(); r != nil {
			co2e = 0
			status = failedPrefix + fmt.Sprint(r)
		}
	}()

	value, err := evaluate(conv, factor)
	if err != nil {
		return 0, StatusFor(err)
	}
	return value, successStatus(conv)
}

func evaluate(conv internal.ConversionOutcome, factor internal.EmissionFactor) (float64, error) {
	switch factor.State {
	case internal.FactorMissing:
		return 0, ErrGWPMissing
	case internal.FactorInvalid:
		return 0, ErrInvalidGWP
	}
	if math.IsNaN(factor.Value) {
		return 0, ErrGWPMissing
	}

	if math.IsNaN(conv.Quantity) || conv.Quantity <= 0 {
		return 0, ErrInvalidQuantity
	}

	if conv.Unit != UnitKg && conv.Unit != UnitM3 {
		return 0, &UnsupportedUnitError{Unit: conv.Unit, Narrative: conv.Narrative}
	}

	product := conv.Quantity * factor.Value
	if math.IsInf(product, 0) || math.IsNaN(product) {
		return 0, ErrCalculationOverflow
	}
	return math.Max(0, product), nil
}

// StatusFor renders a calculation error as an audit status line.
func StatusFor(err error) string {
	var unsupported *UnsupportedUnitError
	switch {
	case errors.Is(err, ErrGWPMissing):
		return StatusGWPMissing
	case errors.Is(err, ErrInvalidGWP):
		return StatusInvalidGWP
	case errors.Is(err, ErrInvalidQuantity):
		return StatusInvalidQuantity
	case errors.As(err, &unsupported):
		return fmt.Sprintf("Error: Unit '%s' not supported - %s", unsupported.Unit, unsupported.Narrative)
	default:
		return failedPrefix + err.Error()
	}
}

func successStatus(conv internal.ConversionOutcome) string {
	if conv.Converted {
		return successPrefix + conv.Narrative
	}
	if conv.Unit == UnitM3 {
		return StatusM3Unit
	}
	return StatusKgUnit
}
