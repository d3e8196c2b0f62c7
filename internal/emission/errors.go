package emission

import "fmt"

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

var (
	ErrGWPMissing          = constError("GWP missing")
	ErrInvalidGWP          = constError("invalid GWP value")
	ErrInvalidQuantity     = constError("invalid quantity after conversion")
	ErrUnsupportedUnit     = constError("unit not supported")
	ErrCalculationOverflow = constError("calculation overflow")
)

// UnsupportedUnitError carries the reconciler narrative for the status line.
type UnsupportedUnitError struct {
	Unit      string
	Narrative string
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unit '%s' not supported: %s", e.Unit, e.Narrative)
}

func (e *UnsupportedUnitError) Is(target error) bool { return target == ErrUnsupportedUnit }
