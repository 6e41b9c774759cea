package usecase

import (
	"sort"
	"strings"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

// DefaultBreakdownLimit caps the contributor breakdown for display.
const DefaultBreakdownLimit = 12

// AggregateNutrients folds a day's logged items into nutrientID → total.
// Each custom-nutrient amount is per single serving and is scaled by the
// item's servings. Keys are canonicalized to modern FDC IDs so a day mixing
// old- and new-generation records totals under one key. Pure fold:
// commutative and associative across items, no unit conversion (amounts are
// pre-normalized at write time).
func AggregateNutrients(items []domain.LoggedItem) map[string]float64 {
	totals := make(map[string]float64)
	for _, item := range items {
		for id, amount := range item.CustomNutrients {
			if !isFinite(amount) {
				continue
			}
			canonical := CanonicalNutrientID(id)
			if canonical != id {
				// The modern key wins when one record carries both
				// generations of the same nutrient.
				if _, dup := item.CustomNutrients[canonical]; dup {
					continue
				}
			}
			totals[canonical] += amount * item.Servings
		}
	}
	return totals
}

// Contribution is one item's share of a single nutrient, for the per-nutrient
// breakdown view.
type Contribution struct {
	ItemID string  `json:"itemId"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// NutrientBreakdown retains per-item line items for one nutrient instead of
// collapsing to a scalar. Meal items resolve through the legacy-aware lookup;
// supplement items resolve through their ingredient list. Sorted descending
// by contributed amount and truncated to limit.
func NutrientBreakdown(nutrientID, nutrientName string, items []domain.LoggedItem, supplements map[string]*domain.Supplement, limit int) []Contribution {
	if limit <= 0 {
		limit = DefaultBreakdownLimit
	}

	var out []Contribution
	for _, item := range items {
		var amount float64
		switch item.Kind {
		case domain.ItemKindSupplement:
			supp := supplements[item.SupplementID]
			if supp == nil {
				continue
			}
			contrib, ok := supplementContribution(nutrientID, nutrientName, item, supp)
			if !ok {
				continue
			}
			amount = contrib
		default:
			amount = ResolveNutrientAmount(nutrientID, item.CustomNutrients) * item.Servings
		}

		if amount <= 0 {
			continue
		}
		name := item.Name
		if item.CustomFoodName != "" {
			name = item.CustomFoodName
		}
		out = append(out, Contribution{ItemID: item.ID, Name: name, Amount: amount})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// supplementContribution resolves one supplement dose's share of a nutrient.
// The ingredient is matched by numeric ID equality or case-insensitive name
// equality. When the logged unit equals the ingredient's unit and is a
// direct-amount unit, the logged dosage is the amount itself ("I took
// 400mg"); otherwise the dose is converted to label servings and scaled by
// the per-serving ingredient amount. ok=false means the dose cannot be
// safely interpreted and must be omitted.
func supplementContribution(nutrientID, nutrientName string, item domain.LoggedItem, supp *domain.Supplement) (float64, bool) {
	ingredient := matchIngredient(nutrientID, nutrientName, supp.Ingredients)
	if ingredient == nil {
		return 0, false
	}

	logged := NormalizeUnit(item.LoggedUnit)
	if logged != "" && logged == NormalizeUnit(ingredient.Unit) && IsDirectAmountUnit(logged) {
		return item.Servings, true
	}

	multiplier, ok := ResolveServingMultiplier(item.Servings, item.LoggedUnit, supp.ServingSize)
	if !ok {
		return 0, false
	}
	return ingredient.Amount * multiplier, true
}

func matchIngredient(nutrientID, nutrientName string, ingredients []domain.NutrientRecord) *domain.NutrientRecord {
	for i := range ingredients {
		ing := &ingredients[i]
		if ing.NutrientID != "" && ing.NutrientID == nutrientID {
			return ing
		}
		if nutrientName != "" && strings.EqualFold(ing.Name, nutrientName) {
			return ing
		}
	}
	return nil
}
