package emission

const (
	AverageDistanceKm  = 100.0
	TruckFactorPerKgKm = 0.0008
)

// TransportModel estimates the A4 contribution from the delivered quantity
// as written on the delivery note. The quantity is read as kilograms
// whatever its unit; pieces and meters are not converted first.
type TransportModel struct {
	DistanceKm    float64
	FactorPerKgKm float64
}

func DefaultTransport() TransportModel {
	return TransportModel{DistanceKm: AverageDistanceKm, FactorPerKgKm: TruckFactorPerKgKm}
}

func (t TransportModel) Estimate(rawQuantity float64) float64 {
	return rawQuantity * t.DistanceKm * t.FactorPerKgKm
}
