package domain

import "context"

// FoodClient defines the interface for the FoodData Central collaborator.
type FoodClient interface {
	SearchFoods(ctx context.Context, query string) ([]FoodCandidate, error)
	GetFood(ctx context.Context, fdcID string) (*Food, error)
}

// RerankClient sends a candidate list plus the user's query to an external
// classifier and receives back a single best-match suggestion.
type RerankClient interface {
	Rerank(ctx context.Context, query string, candidates []FoodCandidate) (*RerankResult, error)
}

// OverrideStore persists user-approved query → fdcId mappings.
// Get returns ErrOverrideMiss when no mapping exists.
type OverrideStore interface {
	Get(ctx context.Context, query string) (string, error)
	Put(ctx context.Context, query, fdcID string) error
}

// ItemStore persists logged meal items and supplement doses.
type ItemStore interface {
	CreateItem(ctx context.Context, item *LoggedItem) error
	GetItem(ctx context.Context, id string) (*LoggedItem, error)
	ListItemsByDay(ctx context.Context, day string) ([]LoggedItem, error)
	UpdateItemNutrition(ctx context.Context, id, customFoodName string, nutrients map[string]float64) error
	UpdateItemServings(ctx context.Context, id string, servings float64) error
	DeleteItem(ctx context.Context, id string) error
}

// SupplementStore persists supplement product definitions.
type SupplementStore interface {
	GetSupplement(ctx context.Context, id string) (*Supplement, error)
	SaveSupplement(ctx context.Context, s *Supplement) error
}

// FoodCache is a read-through cache for food detail lookups.
type FoodCache interface {
	Get(fdcID string) (*Food, bool)
	Set(food *Food)
}
