package emission

import (
	"strings"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/util"
)

var missingTokens = map[string]struct{}{
	"":        {},
	"nan":     {},
	"none":    {},
	"null":    {},
	"-":       {},
	"n/a":     {},
	"missing": {},
}

// ParseEmissionFactor reads a GWP cell as written in the catalog export
// ("12,5", "-0.3", "MISSING").
func ParseEmissionFactor(raw string) internal.EmissionFactor {
	trimmed := strings.TrimSpace(raw)
	if _, ok := missingTokens[strings.ToLower(trimmed)]; ok {
		return internal.MissingEmissionFactor()
	}
	v, ok := util.ParseDecimal(trimmed)
	if !ok {
		return internal.InvalidEmissionFactor(trimmed)
	}
	return internal.KnownEmissionFactor(v)
}
