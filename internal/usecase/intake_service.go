package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

// IntakeService serves the daily-totals and per-nutrient breakdown views over
// a day's logged items.
type IntakeService struct {
	items       domain.ItemStore
	supplements domain.SupplementStore
	log         *zap.Logger
	breakdownN  int
}

// NewIntakeService creates an intake service. breakdownLimit <= 0 uses the
// default display cap.
func NewIntakeService(items domain.ItemStore, supplements domain.SupplementStore, log *zap.Logger, breakdownLimit int) *IntakeService {
	if log == nil {
		log = zap.NewNop()
	}
	if breakdownLimit <= 0 {
		breakdownLimit = DefaultBreakdownLimit
	}
	return &IntakeService{
		items:       items,
		supplements: supplements,
		log:         log,
		breakdownN:  breakdownLimit,
	}
}

// DailyTotals aggregates one day's logged items into nutrientID → total.
func (s *IntakeService) DailyTotals(ctx context.Context, day string) (map[string]float64, error) {
	if day == "" {
		return nil, domain.ErrInvalidRequest
	}
	items, err := s.items.ListItemsByDay(ctx, day)
	if err != nil {
		return nil, err
	}
	return AggregateNutrients(items), nil
}

// Breakdown returns the top contributors for one nutrient on one day.
// Supplement definitions that cannot be loaded degrade to an omitted
// contribution rather than failing the view.
func (s *IntakeService) Breakdown(ctx context.Context, day, nutrientID, nutrientName string) ([]Contribution, error) {
	if day == "" || nutrientID == "" {
		return nil, domain.ErrInvalidRequest
	}
	items, err := s.items.ListItemsByDay(ctx, day)
	if err != nil {
		return nil, err
	}

	supplements := make(map[string]*domain.Supplement)
	for _, item := range items {
		if item.Kind != domain.ItemKindSupplement || item.SupplementID == "" {
			continue
		}
		if _, seen := supplements[item.SupplementID]; seen {
			continue
		}
		supp, err := s.supplements.GetSupplement(ctx, item.SupplementID)
		if err != nil {
			if !errors.Is(err, domain.ErrSupplementNotFound) {
				s.log.Warn("supplement load failed",
					zap.String("supplement_id", item.SupplementID), zap.Error(err))
			}
			// Record the miss so further doses of the same supplement do not
			// re-fetch within this request.
			supplements[item.SupplementID] = nil
			continue
		}
		supplements[item.SupplementID] = supp
	}

	return NutrientBreakdown(nutrientID, nutrientName, items, supplements, s.breakdownN), nil
}
