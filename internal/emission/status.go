package emission

import "strings"

type StatusKind string

const (
	KindSuccess           StatusKind = "success"
	KindSuccessConverted  StatusKind = "success_converted"
	KindGWPMissing        StatusKind = "gwp_missing"
	KindInvalidGWP        StatusKind = "invalid_gwp"
	KindInvalidQuantity   StatusKind = "invalid_quantity"
	KindUnsupportedUnit   StatusKind = "unsupported_unit"
	KindCalculationFailed StatusKind = "calculation_failed"
	KindOther             StatusKind = "other"
)

// Classify maps a status line back to its kind, for aggregation.
func Classify(status string) StatusKind {
	switch {
	case status == StatusKgUnit || status == StatusM3Unit:
		return KindSuccess
	case strings.HasPrefix(status, successPrefix):
		return KindSuccessConverted
	case status == StatusGWPMissing:
		return KindGWPMissing
	case status == StatusInvalidGWP:
		return KindInvalidGWP
	case status == StatusInvalidQuantity:
		return KindInvalidQuantity
	case strings.HasPrefix(status, "Error: Unit '"):
		return KindUnsupportedUnit
	case strings.HasPrefix(status, failedPrefix):
		return KindCalculationFailed
	default:
		return KindOther
	}
}

func IsSuccess(status string) bool {
	return strings.Contains(status, "Success")
}

func IsConverted(status string) bool {
	return strings.Contains(status, "Converted:")
}
