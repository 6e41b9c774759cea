package usecase

import (
	"context"
	"testing"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

type fakeSupplementStore struct {
	supplements map[string]*domain.Supplement
	gets        map[string]int
}

func (s *fakeSupplementStore) GetSupplement(ctx context.Context, id string) (*domain.Supplement, error) {
	if s.gets == nil {
		s.gets = make(map[string]int)
	}
	s.gets[id]++
	supp, ok := s.supplements[id]
	if !ok {
		return nil, domain.ErrSupplementNotFound
	}
	return supp, nil
}

func (s *fakeSupplementStore) SaveSupplement(ctx context.Context, supp *domain.Supplement) error {
	s.supplements[supp.ID] = supp
	return nil
}

func TestDailyTotals(t *testing.T) {
	ctx := context.Background()
	items := newFakeItemStore(
		&domain.LoggedItem{ID: "a", Kind: domain.ItemKindMeal, Day: "2026-08-27", Servings: 2,
			CustomNutrients: map[string]float64{"1003": 10}},
		&domain.LoggedItem{ID: "b", Kind: domain.ItemKindMeal, Day: "2026-08-27", Servings: 1,
			CustomNutrients: map[string]float64{"1003": 5, "1008": 200}},
		&domain.LoggedItem{ID: "c", Kind: domain.ItemKindMeal, Day: "2026-08-28", Servings: 1,
			CustomNutrients: map[string]float64{"1003": 99}},
		&domain.LoggedItem{ID: "d", Kind: domain.ItemKindMeal, Day: "2026-08-27", Servings: 1,
			CustomNutrients: map[string]float64{"208": 50}},
	)
	svc := NewIntakeService(items, &fakeSupplementStore{}, nil, 0)

	totals, err := svc.DailyTotals(ctx, "2026-08-27")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals["1003"] != 25 {
		t.Errorf("protein = %v, want 25", totals["1003"])
	}
	// The legacy-coded record folds into the modern energy key.
	if totals["1008"] != 250 {
		t.Errorf("energy = %v, want 250", totals["1008"])
	}
	if _, present := totals["208"]; present {
		t.Error("legacy key should not surface in totals")
	}

	if _, err := svc.DailyTotals(ctx, ""); err != domain.ErrInvalidRequest {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestBreakdown(t *testing.T) {
	ctx := context.Background()
	items := newFakeItemStore(
		&domain.LoggedItem{ID: "meal", Kind: domain.ItemKindMeal, Day: "2026-08-27", Name: "Spinach", Servings: 1,
			CustomNutrients: map[string]float64{"1090": 80}},
		&domain.LoggedItem{ID: "dose", Kind: domain.ItemKindSupplement, Day: "2026-08-27", Name: "Magnesium",
			SupplementID: "supp-mag", Servings: 2, LoggedUnit: "capsules"},
		&domain.LoggedItem{ID: "orphan", Kind: domain.ItemKindSupplement, Day: "2026-08-27", Name: "Mystery",
			SupplementID: "supp-missing", Servings: 1},
	)
	supplements := &fakeSupplementStore{supplements: map[string]*domain.Supplement{
		"supp-mag": {
			ID: "supp-mag", Name: "Magnesium Glycinate", ServingSize: "2 capsules",
			Ingredients: []domain.NutrientRecord{
				{NutrientID: "1090", Name: "Magnesium", Amount: 200, Unit: "mg"},
			},
		},
	}}
	svc := NewIntakeService(items, supplements, nil, 0)

	got, err := svc.Breakdown(ctx, "2026-08-27", "1090", "Magnesium")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Supplement: 2 capsules of a 2-capsule serving = 200 mg; meal adds 80.
	// Missing supplement definitions degrade to omission.
	if len(got) != 2 {
		t.Fatalf("got %d contributions, want 2: %+v", len(got), got)
	}
	if got[0].ItemID != "dose" || got[0].Amount != 200 {
		t.Errorf("top contributor = %+v, want dose/200", got[0])
	}
	if got[1].ItemID != "meal" || got[1].Amount != 80 {
		t.Errorf("second contributor = %+v, want meal/80", got[1])
	}
}

func TestBreakdown_MissingSupplementFetchedOnce(t *testing.T) {
	ctx := context.Background()
	items := newFakeItemStore(
		&domain.LoggedItem{ID: "d1", Kind: domain.ItemKindSupplement, Day: "2026-08-27", Name: "Mystery",
			SupplementID: "supp-missing", Servings: 1},
		&domain.LoggedItem{ID: "d2", Kind: domain.ItemKindSupplement, Day: "2026-08-27", Name: "Mystery",
			SupplementID: "supp-missing", Servings: 2},
	)
	supplements := &fakeSupplementStore{}
	svc := NewIntakeService(items, supplements, nil, 0)

	got, err := svc.Breakdown(ctx, "2026-08-27", "1090", "Magnesium")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d contributions, want 0", len(got))
	}
	if supplements.gets["supp-missing"] != 1 {
		t.Errorf("GetSupplement called %d times, want 1", supplements.gets["supp-missing"])
	}
}
