package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

// ResolutionConfig holds the fix-nutrition heuristics. The thresholds are
// product constants carried over as configuration rather than re-derived.
type ResolutionConfig struct {
	// AutoAcceptConfidence is the minimum re-rank confidence for applying a
	// suggestion without user confirmation.
	AutoAcceptConfidence float64
	// MaxRerankCandidates caps how many search hits are sent to the
	// re-ranker.
	MaxRerankCandidates int
}

const (
	defaultAutoAcceptConfidence = 0.92
	defaultMaxRerankCandidates  = 18
)

// FixOutcome is the result of a fix-nutrition attempt. Either the match was
// applied to the item, or a suggestion plus the full candidate list is
// returned for the user to confirm.
type FixOutcome struct {
	Applied    bool                   `json:"applied"`
	Item       *domain.LoggedItem     `json:"item,omitempty"`
	Suggestion *domain.RerankResult   `json:"suggestion,omitempty"`
	Candidates []domain.FoodCandidate `json:"candidates,omitempty"`
}

// ResolutionService runs the fix-nutrition flow: override cache first, then
// food search, then best-effort re-ranking, then apply-or-await-confirmation.
type ResolutionService struct {
	items     domain.ItemStore
	overrides domain.OverrideStore
	foods     domain.FoodClient
	rerank    domain.RerankClient // nil disables re-ranking
	cache     domain.FoodCache
	log       *zap.Logger

	autoAcceptConfidence float64
	maxRerankCandidates  int

	mu     sync.Mutex
	fixing map[string]struct{} // item IDs with a fix in flight
}

// NewResolutionService creates a resolution service with dependencies.
// rerank and cache may be nil.
func NewResolutionService(
	items domain.ItemStore,
	overrides domain.OverrideStore,
	foods domain.FoodClient,
	rerank domain.RerankClient,
	cache domain.FoodCache,
	log *zap.Logger,
	cfg ResolutionConfig,
) *ResolutionService {
	if cfg.AutoAcceptConfidence <= 0 || cfg.AutoAcceptConfidence > 1 {
		cfg.AutoAcceptConfidence = defaultAutoAcceptConfidence
	}
	if cfg.MaxRerankCandidates <= 0 {
		cfg.MaxRerankCandidates = defaultMaxRerankCandidates
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ResolutionService{
		items:                items,
		overrides:            overrides,
		foods:                foods,
		rerank:               rerank,
		cache:                cache,
		log:                  log,
		autoAcceptConfidence: cfg.AutoAcceptConfidence,
		maxRerankCandidates:  cfg.MaxRerankCandidates,
		fixing:               make(map[string]struct{}),
	}
}

// FixNutrition resolves a free-text food query for one logged item.
// Flow: check override -> search -> re-rank -> auto-accept or return the
// suggestion for user confirmation. A second fix for the same item while one
// is in flight returns ErrFixInProgress.
func (s *ResolutionService) FixNutrition(ctx context.Context, itemID, query string) (*FixOutcome, error) {
	query = strings.TrimSpace(query)
	if itemID == "" || query == "" {
		return nil, domain.ErrInvalidRequest
	}

	if !s.beginFix(itemID) {
		return nil, domain.ErrFixInProgress
	}
	defer s.endFix(itemID)

	// CheckingOverride
	if fdcID, err := s.overrides.Get(ctx, query); err == nil {
		item, err := s.applyFood(ctx, itemID, fdcID)
		if err != nil {
			return nil, err
		}
		s.log.Info("override hit",
			zap.String("item_id", itemID),
			zap.String("query", query),
			zap.String("fdc_id", fdcID))
		return &FixOutcome{Applied: true, Item: item}, nil
	} else if !errors.Is(err, domain.ErrOverrideMiss) {
		// Store trouble degrades to a normal search rather than blocking.
		s.log.Warn("override lookup failed", zap.String("query", query), zap.Error(err))
	}

	// Searching
	candidates, err := s.foods.SearchFoods(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, domain.ErrFoodNotFound
	}

	// Reranking
	suggestion, reranked := s.rerankCandidates(ctx, query, candidates)

	if reranked && s.autoAcceptable(suggestion, candidates) {
		item, err := s.applyFood(ctx, itemID, suggestion.FdcID)
		if err != nil {
			return nil, err
		}
		// Override persistence is best-effort: the nutrient write already
		// happened and the two writes carry no atomicity guarantee.
		if err := s.overrides.Put(ctx, query, suggestion.FdcID); err != nil {
			s.log.Warn("override persist failed", zap.String("query", query), zap.Error(err))
		}
		s.log.Info("auto-accepted match",
			zap.String("item_id", itemID),
			zap.String("query", query),
			zap.String("fdc_id", suggestion.FdcID),
			zap.Float64("confidence", suggestion.Confidence))
		return &FixOutcome{Applied: true, Item: item}, nil
	}

	// AwaitingUserChoice
	return &FixOutcome{Applied: false, Suggestion: suggestion, Candidates: candidates}, nil
}

// ConfirmPick is the UserConfirms edge: apply the chosen food's nutrients to
// the item and persist the override for future identical queries.
func (s *ResolutionService) ConfirmPick(ctx context.Context, itemID, query, fdcID string) (*domain.LoggedItem, error) {
	query = strings.TrimSpace(query)
	if itemID == "" || query == "" || fdcID == "" {
		return nil, domain.ErrInvalidRequest
	}

	if !s.beginFix(itemID) {
		return nil, domain.ErrFixInProgress
	}
	defer s.endFix(itemID)

	item, err := s.applyFood(ctx, itemID, fdcID)
	if err != nil {
		return nil, err
	}
	if err := s.overrides.Put(ctx, query, fdcID); err != nil {
		s.log.Warn("override persist failed", zap.String("query", query), zap.Error(err))
	}
	return item, nil
}

// rerankCandidates asks the re-ranker for a best match. On any failure, or
// with fewer than two candidates, it falls back to the top raw search result
// (rank order preserved from the upstream search) with the confirmation flag
// set. The second return value reports whether a real re-rank happened.
func (s *ResolutionService) rerankCandidates(ctx context.Context, query string, candidates []domain.FoodCandidate) (*domain.RerankResult, bool) {
	fallback := &domain.RerankResult{
		FdcID:                 candidates[0].FdcID,
		Confidence:            0,
		NeedsUserConfirmation: true,
	}

	if s.rerank == nil || len(candidates) < 2 {
		return fallback, false
	}

	capped := candidates
	if len(capped) > s.maxRerankCandidates {
		capped = capped[:s.maxRerankCandidates]
	}

	result, err := s.rerank.Rerank(ctx, query, capped)
	if err != nil || result == nil || result.FdcID == "" {
		s.log.Warn("rerank failed, using top search result",
			zap.String("query", query), zap.Error(err))
		return fallback, false
	}
	return result, true
}

// autoAcceptable applies the auto-accept policy: high confidence, no
// confirmation requested, and the suggested ID must be among the original
// candidates.
func (s *ResolutionService) autoAcceptable(r *domain.RerankResult, candidates []domain.FoodCandidate) bool {
	if r.NeedsUserConfirmation || r.Confidence < s.autoAcceptConfidence {
		return false
	}
	for _, c := range candidates {
		if c.FdcID == r.FdcID {
			return true
		}
	}
	return false
}

// applyFood fetches the food detail (through the cache when available) and
// writes its name and nutrient map to the item. A detail-fetch failure aborts
// the fix with no partial write.
func (s *ResolutionService) applyFood(ctx context.Context, itemID, fdcID string) (*domain.LoggedItem, error) {
	var food *domain.Food
	if s.cache != nil {
		if cached, ok := s.cache.Get(fdcID); ok {
			food = cached
		}
	}
	if food == nil {
		fetched, err := s.foods.GetFood(ctx, fdcID)
		if err != nil {
			return nil, err
		}
		food = fetched
		if s.cache != nil {
			s.cache.Set(food)
		}
	}

	if err := s.items.UpdateItemNutrition(ctx, itemID, food.Description, food.NutrientMap()); err != nil {
		return nil, err
	}
	return s.items.GetItem(ctx, itemID)
}

func (s *ResolutionService) beginFix(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.fixing[itemID]; busy {
		return false
	}
	s.fixing[itemID] = struct{}{}
	return true
}

func (s *ResolutionService) endFix(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fixing, itemID)
}
