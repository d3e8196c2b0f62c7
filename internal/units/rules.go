package units

import (
	"strings"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal/util"
)

// Rule assigns Value when any keyword is a substring of the scanned text.
// Rule lists are ordered; the first hit wins.
type Rule struct {
	Name     string
	Keywords []string
	Value    float64
}

type RuleSet struct {
	Rules    []Rule
	Fallback float64
}

func (rs RuleSet) Lookup(text string) (float64, string) {
	for _, r := range rs.Rules {
		if util.ContainsAny(text, r.Keywords) {
			return r.Value, r.Name
		}
	}
	return rs.Fallback, "default"
}

// ThicknessRules give an assumed layer thickness in meters for area units.
var ThicknessRules = RuleSet{
	Rules: []Rule{
		{Name: "concrete", Keywords: []string{"beton", "concrete", "estrich", "screed"}, Value: 0.15},
		{Name: "roofing", Keywords: []string{"dach", "roof", "membrane", "folie"}, Value: 0.005},
		{Name: "wall", Keywords: []string{"wand", "wall", "mauer"}, Value: 0.20},
		{Name: "insulation", Keywords: []string{"dämmung", "daemmung", "insulation", "isolierung"}, Value: 0.10},
		{Name: "sheet", Keywords: []string{"blech", "sheet", "platte"}, Value: 0.002},
	},
	Fallback: 0.01,
}

// PieceRules give an assumed weight per piece in kg.
var PieceRules = RuleSet{
	Rules: []Rule{
		{Name: "fastener", Keywords: []string{"schraube", "screw", "bolt", "mutter"}, Value: 0.01},
		{Name: "nail", Keywords: []string{"nagel", "nail"}, Value: 0.005},
		{Name: "brick", Keywords: []string{"ziegel", "brick", "stein"}, Value: 2.5},
		{Name: "beam", Keywords: []string{"balken", "beam", "träger"}, Value: 50},
		{Name: "panel", Keywords: []string{"platte", "panel", "board"}, Value: 25},
		{Name: "pipe", Keywords: []string{"rohr", "pipe", "tube"}, Value: 10},
		{Name: "window", Keywords: []string{"fenster", "window", "tür", "door"}, Value: 30},
		{Name: "roof tile", Keywords: []string{"dachziegel", "tile"}, Value: 3},
	},
	Fallback: 1,
}

// MaterialMultipliers scale a piece weight by the matched material name.
var MaterialMultipliers = RuleSet{
	Rules: []Rule{
		{Name: "steel", Keywords: []string{"stahl", "steel", "eisen"}, Value: 7.85},
		{Name: "wood", Keywords: []string{"holz", "wood", "timber"}, Value: 0.6},
		{Name: "aluminium", Keywords: []string{"aluminium", "aluminum"}, Value: 2.7},
	},
	Fallback: 1,
}

// RebarKeywords switch linear units to the rebar weight table.
var RebarKeywords = []string{"stahl", "steel", "eisen", "bewehrung", "betonstahl"}

type RebarWeight struct {
	Diameter string
	KgPerM   float64
}

// RebarWeights are checked as substrings of the description, in this order.
var RebarWeights = []RebarWeight{
	{Diameter: "8", KgPerM: 0.395},
	{Diameter: "10", KgPerM: 0.617},
	{Diameter: "12", KgPerM: 0.888},
	{Diameter: "14", KgPerM: 1.208},
	{Diameter: "16", KgPerM: 1.578},
	{Diameter: "20", KgPerM: 2.466},
	{Diameter: "25", KgPerM: 3.853},
}

const SteelKgPerM = 1.5

// MeterRules apply to linear units when no rebar keyword is present.
var MeterRules = RuleSet{
	Rules: []Rule{
		{Name: "pipe", Keywords: []string{"rohr", "pipe", "tube"}, Value: 5},
		{Name: "cable", Keywords: []string{"kabel", "cable", "leitung"}, Value: 0.5},
		{Name: "wood", Keywords: []string{"holz", "wood", "balken"}, Value: 15},
		{Name: "profile", Keywords: []string{"profil", "profile"}, Value: 8},
	},
	Fallback: 1,
}

// Thickness returns the assumed thickness in meters for a description.
func Thickness(description string) float64 {
	v, _ := ThicknessRules.Lookup(util.NormalizeText(description))
	return v
}

// PieceWeight returns kg per piece after the material multiplier.
func PieceWeight(description, materialName string) float64 {
	base, _ := PieceRules.Lookup(util.NormalizeText(description))
	mult, _ := MaterialMultipliers.Lookup(util.NormalizeText(materialName))
	return base * mult
}

// MeterWeight returns kg per meter for a description.
func MeterWeight(description string) float64 {
	desc := util.NormalizeText(description)
	if util.ContainsAny(desc, RebarKeywords) {
		for _, rw := range RebarWeights {
			if strings.Contains(desc, rw.Diameter) {
				return rw.KgPerM
			}
		}
		return SteelKgPerM
	}
	v, _ := MeterRules.Lookup(desc)
	return v
}
