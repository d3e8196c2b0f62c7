package units

import (
	"fmt"
	"strings"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/util"
)

const NoConversionNeeded = "no conversion needed"

type Input struct {
	Quantity      float64
	SourceUnit    string
	ReferenceUnit string
	Description   string
	MaterialName  string
	BulkDensity   *float64
}

// Reconcile converts a delivered quantity into kg or m3. The delivery's own
// unit is used; the catalog reference unit only stands in when the delivery
// carries none. Unsupported units pass through with a narrative saying so.
func Reconcile(in Input) internal.ConversionOutcome {
	unit := strings.TrimSpace(in.SourceUnit)
	if unit == "" {
		unit = strings.TrimSpace(in.ReferenceUnit)
	}
	desc := util.NormalizeText(in.Description)
	q := in.Quantity

	switch Canonical(unit) {
	case TokenKg:
		return internal.ConversionOutcome{Quantity: q, Unit: string(TokenKg), Narrative: NoConversionNeeded}
	case TokenM3:
		return internal.ConversionOutcome{Quantity: q, Unit: string(TokenM3), Narrative: NoConversionNeeded}
	case TokenM2:
		return fromArea(q, desc, in.BulkDensity)
	case TokenPiece:
		w := PieceWeight(desc, in.MaterialName)
		mass := q * w
		return internal.ConversionOutcome{
			Quantity:  mass,
			Unit:      string(TokenKg),
			Narrative: fmt.Sprintf("Converted: %s pcs × %.3f kg/pc = %.2f kg", util.FormatFloat(q), w, mass),
			Converted: true,
		}
	case TokenMeter:
		w := MeterWeight(desc)
		mass := q * w
		return internal.ConversionOutcome{
			Quantity:  mass,
			Unit:      string(TokenKg),
			Narrative: fmt.Sprintf("Converted: %s m × %.3f kg/m = %.2f kg", util.FormatFloat(q), w, mass),
			Converted: true,
		}
	default:
		return internal.ConversionOutcome{
			Quantity:  q,
			Unit:      NormalizeUnit(unit),
			Narrative: fmt.Sprintf("Unknown unit '%s' - no conversion available", unit),
		}
	}
}

func fromArea(q float64, desc string, density *float64) internal.ConversionOutcome {
	t := Thickness(desc)
	volume := q * t
	if density != nil && *density > 0 {
		mass := volume * *density
		return internal.ConversionOutcome{
			Quantity: mass,
			Unit:     string(TokenKg),
			Narrative: fmt.Sprintf("Converted: %s m² × %sm × %s kg/m³ = %.2f kg",
				util.FormatFloat(q), util.FormatFloat(t), util.FormatFloat(*density), mass),
			Converted: true,
		}
	}
	return internal.ConversionOutcome{
		Quantity:  volume,
		Unit:      string(TokenM3),
		Narrative: fmt.Sprintf("Converted: %s m² × %sm = %.3f m³", util.FormatFloat(q), util.FormatFloat(t), volume),
		Converted: true,
	}
}
