package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	unitCharsRegex      = regexp.MustCompile(`[^a-z0-9µμ\s-]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// irregularSingulars maps dose-form plurals that the generic rules get wrong.
var irregularSingulars = map[string]string{
	"capsules": "capsule",
	"tablets":  "tablet",
	"softgels": "softgel",
	"gummies":  "gummy",
	"servings": "serving",
}

// NormalizeUnit canonicalizes a free-text dose or serving unit: lowercase,
// strip everything outside [a-z0-9µμ\s-], collapse whitespace. There is no
// error path; unresolvable input comes back as a best-effort lowercase
// string, possibly empty.
func NormalizeUnit(raw string) string {
	s := strings.ToLower(raw)
	s = unitCharsRegex.ReplaceAllString(s, "")
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Singularize normalizes a unit and maps it to its singular form. Known
// dose-form plurals use the irregular table, then "-ies" → "y", then a
// trailing "s" is dropped for anything longer than two characters (so "mg"
// and "g" survive untouched).
func Singularize(unit string) string {
	s := NormalizeUnit(unit)
	if mapped, ok := irregularSingulars[s]; ok {
		return mapped
	}
	if strings.HasSuffix(s, "ies") && len(s) > 3 {
		return s[:len(s)-3] + "y"
	}
	if strings.HasSuffix(s, "s") && len(s) > 2 {
		return s[:len(s)-1]
	}
	return s
}

// massToMilligrams holds conversion factors for mass units to the common
// milligram basis.
var massToMilligrams = map[string]float64{
	"mg":  1,
	"mcg": 0.001,
	"µg":  0.001,
	"μg":  0.001,
	"g":   1000,
}

// MassToMilligrams converts a mass amount to milligrams. The second return
// value is false when the unit is not a recognized mass unit.
func MassToMilligrams(amount float64, unit string) (float64, bool) {
	factor, ok := massToMilligrams[NormalizeUnit(unit)]
	if !ok {
		return 0, false
	}
	return amount * factor, true
}

// directAmountUnits are the units for which a logged dosage is the nutrient
// amount itself ("I took 400mg"), bypassing serving-multiplier math. The
// allowlist is a product heuristic carried over as-is.
var directAmountUnits = map[string]bool{
	"mg":   true,
	"mcg":  true,
	"µg":   true,
	"μg":   true,
	"g":    true,
	"kcal": true,
	"iu":   true,
	"cfu":  true,
}

// IsDirectAmountUnit reports whether the unit expresses a nutrient amount
// directly rather than a count of dose forms.
func IsDirectAmountUnit(unit string) bool {
	return directAmountUnits[NormalizeUnit(unit)]
}
