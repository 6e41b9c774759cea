package domain

import "time"

// ItemKind distinguishes meal items from supplement doses in a day's log.
type ItemKind string

const (
	ItemKindMeal       ItemKind = "meal"
	ItemKindSupplement ItemKind = "supplement"
)

// NutrientRecord is one nutrient amount per single serving, as produced by a
// food lookup or a supplement ingredient row. Immutable once fetched.
type NutrientRecord struct {
	NutrientID string  `json:"nutrientId"`
	Name       string  `json:"name,omitempty"`
	Amount     float64 `json:"amount"`
	Unit       string  `json:"unit"`
}

// LoggedItem is a meal item or supplement dose owned by a day's log.
// For supplement items, Servings holds the logged dosage and LoggedUnit the
// unit the user typed ("capsules", "mg", "2 capsules").
type LoggedItem struct {
	ID              string             `json:"id"`
	Kind            ItemKind           `json:"kind"`
	Day             string             `json:"day"` // YYYY-MM-DD
	Name            string             `json:"name"`
	Servings        float64            `json:"servings"`
	LoggedUnit      string             `json:"loggedUnit,omitempty"`
	SupplementID    string             `json:"supplementId,omitempty"`
	CustomFoodName  string             `json:"customFoodName,omitempty"`
	CustomNutrients map[string]float64 `json:"customNutrients,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Supplement is a product definition whose ingredient amounts are per label
// serving. ServingSize is free-text vendor copy ("2 capsules (1060 mg)").
type Supplement struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	ServingSize string           `json:"servingSize"`
	Ingredients []NutrientRecord `json:"ingredients"`
}

// ServingSpec is a parsed serving-size label. Derived, never stored.
type ServingSpec struct {
	Count float64 `json:"count"`
	Unit  string  `json:"unit"`
}

// ResolutionOverride is a persistent user-approved mapping from a free-text
// food query to a specific FDC entry. Last write wins, no expiry.
type ResolutionOverride struct {
	Query     string    `json:"query"`
	FdcID     string    `json:"fdcId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Food is a food-database entry with per-serving nutrient amounts.
type Food struct {
	FdcID           string           `json:"fdcId"`
	Description     string           `json:"description"`
	DataType        string           `json:"dataType,omitempty"`
	BrandOwner      string           `json:"brandOwner,omitempty"`
	ServingSize     string           `json:"servingSize,omitempty"`
	ServingSizeUnit string           `json:"servingSizeUnit,omitempty"`
	Nutrients       []NutrientRecord `json:"nutrients"`
}

// NutrientMap flattens the food's nutrient list into nutrientID → amount.
// Duplicate IDs keep the last value.
func (f *Food) NutrientMap() map[string]float64 {
	m := make(map[string]float64, len(f.Nutrients))
	for _, n := range f.Nutrients {
		m[n.NutrientID] = n.Amount
	}
	return m
}
