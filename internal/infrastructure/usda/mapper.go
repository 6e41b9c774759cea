package usda

import (
	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

// mapFood converts an FDC wire food into the domain model. Detail responses
// nest nutrient metadata under "nutrient" with the value in "amount"; search
// hits inline it. Both shapes are handled so the mapper works for either.
func mapFood(f *wireFood) *domain.Food {
	nutrients := make([]domain.NutrientRecord, 0, len(f.FoodNutrients))
	for _, n := range f.FoodNutrients {
		rec := mapNutrient(n)
		if rec.NutrientID == "" {
			continue
		}
		nutrients = append(nutrients, rec)
	}

	return &domain.Food{
		FdcID:           f.FdcID.String(),
		Description:     f.Description,
		DataType:        f.DataType,
		BrandOwner:      f.BrandOwner,
		ServingSize:     servingSizeText(f),
		ServingSizeUnit: f.ServingSizeUnit,
		Nutrients:       nutrients,
	}
}

func mapNutrient(n wireNutrient) domain.NutrientRecord {
	if n.Nutrient != nil {
		return domain.NutrientRecord{
			NutrientID: n.Nutrient.ID.String(),
			Name:       n.Nutrient.Name,
			Amount:     n.Amount,
			Unit:       n.Nutrient.UnitName,
		}
	}
	return domain.NutrientRecord{
		NutrientID: n.NutrientID.String(),
		Name:       n.NutrientName,
		Amount:     n.Value,
		Unit:       n.UnitName,
	}
}
