package usecase

import "math"

// legacyToModern maps retired USDA nutrient numbers to their modern FDC IDs,
// so historical records aggregate correctly against new-ID lookups.
var legacyToModern = map[string]string{
	"208": "1008", // energy (kcal)
	"203": "1003", // protein
	"204": "1004", // total fat
	"205": "1005", // carbohydrate
	"291": "1079", // fiber
	"307": "1093", // sodium
	"601": "1253", // cholesterol
	"401": "1162", // vitamin C
	"328": "1114", // vitamin D
}

// legacyNutrientIDs holds both directions so a lookup succeeds regardless of
// which generation the record was stored under.
var legacyNutrientIDs = func() map[string]string {
	m := make(map[string]string, 2*len(legacyToModern))
	for old, modern := range legacyToModern {
		m[old] = modern
		m[modern] = old
	}
	return m
}()

// CanonicalNutrientID maps a retired nutrient number to its modern FDC ID.
// Modern and unknown IDs pass through unchanged.
func CanonicalNutrientID(nutrientID string) string {
	if modern, ok := legacyToModern[nutrientID]; ok {
		return modern
	}
	return nutrientID
}

// ResolveNutrientAmount looks up a nutrient amount in an item's nutrient map,
// consulting the legacy ID translation on a miss. Non-finite stored values
// count as misses. Defaults to 0 when neither scheme has a finite value.
func ResolveNutrientAmount(nutrientID string, nutrients map[string]float64) float64 {
	if v, ok := nutrients[nutrientID]; ok && isFinite(v) {
		return v
	}
	if alt, ok := legacyNutrientIDs[nutrientID]; ok {
		if v, ok := nutrients[alt]; ok && isFinite(v) {
			return v
		}
	}
	return 0
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
