package units

import "strings"

type Token string

const (
	TokenKg      Token = "kg"
	TokenM3      Token = "m3"
	TokenM2      Token = "m2"
	TokenPiece   Token = "piece"
	TokenMeter   Token = "meter"
	TokenUnknown Token = "unknown"
)

var unitAliases = map[string]Token{
	"kg":        TokenKg,
	"kgs":       TokenKg,
	"kilogram":  TokenKg,
	"kilogramm": TokenKg,

	"m3":         TokenM3,
	"cbm":        TokenM3,
	"kubikmeter": TokenM3,

	"m2":           TokenM2,
	"qm":           TokenM2,
	"sqm":          TokenM2,
	"quadratmeter": TokenM2,

	"pcs":    TokenPiece,
	"pc":     TokenPiece,
	"stk":    TokenPiece,
	"st":     TokenPiece,
	"stck":   TokenPiece,
	"stück":  TokenPiece,
	"stueck": TokenPiece,
	"piece":  TokenPiece,
	"pieces": TokenPiece,

	"m":     TokenMeter,
	"lfm":   TokenMeter,
	"lfdm":  TokenMeter,
	"meter": TokenMeter,
	"metre": TokenMeter,
}

// NormalizeUnit lower-cases a unit label and folds superscripts, so
// "M³", "m^3" and "m3" read the same. A trailing dot is dropped ("Stk.").
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.NewReplacer("^", "", "³", "3", "²", "2", " ", "").Replace(u)
	return strings.TrimSuffix(u, ".")
}

func Canonical(unit string) Token {
	if t, ok := unitAliases[NormalizeUnit(unit)]; ok {
		return t
	}
	return TokenUnknown
}
