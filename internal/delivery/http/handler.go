package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
	"github.com/jacob-sycoff/tibera-health-backend/internal/usecase"
)

// Meal servings are clamped to quarter increments within this range at the
// API boundary. Supplement dosages are not clamped.
const (
	minServings = 0.25
	maxServings = 50
)

// ResolutionService is the fix-nutrition flow consumed by the handler.
type ResolutionService interface {
	FixNutrition(ctx context.Context, itemID, query string) (*usecase.FixOutcome, error)
	ConfirmPick(ctx context.Context, itemID, query, fdcID string) (*domain.LoggedItem, error)
}

// IntakeService is the totals/breakdown view consumed by the handler.
type IntakeService interface {
	DailyTotals(ctx context.Context, day string) (map[string]float64, error)
	Breakdown(ctx context.Context, day, nutrientID, nutrientName string) ([]usecase.Contribution, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	items      domain.ItemStore
	resolution ResolutionService
	intake     IntakeService
	log        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(items domain.ItemStore, resolution ResolutionService, intake IntakeService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{items: items, resolution: resolution, intake: intake, log: log}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "tibera-health-backend",
	})
}

type createItemRequest struct {
	Kind            string             `json:"kind" binding:"required"`
	Day             string             `json:"day" binding:"required"`
	Name            string             `json:"name" binding:"required"`
	Servings        float64            `json:"servings"`
	LoggedUnit      string             `json:"loggedUnit"`
	SupplementID    string             `json:"supplementId"`
	CustomNutrients map[string]float64 `json:"customNutrients"`
}

// CreateItem logs a new meal item or supplement dose.
func (h *Handler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := domain.ItemKind(req.Kind)
	if kind != domain.ItemKindMeal && kind != domain.ItemKindSupplement {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be 'meal' or 'supplement'"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be YYYY-MM-DD"})
		return
	}
	servings, err := normalizeServings(kind, req.Servings)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "supplement servings must be a positive dosage"})
		return
	}

	item := &domain.LoggedItem{
		Kind:            kind,
		Day:             req.Day,
		Name:            req.Name,
		Servings:        servings,
		LoggedUnit:      req.LoggedUnit,
		SupplementID:    req.SupplementID,
		CustomNutrients: req.CustomNutrients,
	}
	if err := h.items.CreateItem(c.Request.Context(), item); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListItems returns all items logged on one day (?date=YYYY-MM-DD).
func (h *Handler) ListItems(c *gin.Context) {
	day := c.Query("date")
	if _, err := time.Parse("2006-01-02", day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	items, err := h.items.ListItemsByDay(c.Request.Context(), day)
	if err != nil {
		h.fail(c, err)
		return
	}
	if items == nil {
		items = []domain.LoggedItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type updateServingsRequest struct {
	Servings float64 `json:"servings" binding:"required"`
}

// UpdateServings changes an item's serving count. The item's kind decides the
// servings rule, so it is loaded first.
func (h *Handler) UpdateServings(c *gin.Context) {
	var req updateServingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.items.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	servings, err := normalizeServings(item.Kind, req.Servings)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "supplement servings must be a positive dosage"})
		return
	}
	if err := h.items.UpdateItemServings(c.Request.Context(), item.ID, servings); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteItem removes a logged item.
func (h *Handler) DeleteItem(c *gin.Context) {
	if err := h.items.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DailyTotals returns the day's aggregated nutrient totals.
func (h *Handler) DailyTotals(c *gin.Context) {
	day := c.Param("date")
	if _, err := time.Parse("2006-01-02", day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	totals, err := h.intake.DailyTotals(c.Request.Context(), day)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day, "totals": totals})
}

// NutrientBreakdown returns the day's top contributors for one nutrient.
// The optional ?name= query enables ingredient-name matching for supplements.
func (h *Handler) NutrientBreakdown(c *gin.Context) {
	day := c.Param("date")
	if _, err := time.Parse("2006-01-02", day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	contributions, err := h.intake.Breakdown(c.Request.Context(), day, c.Param("nutrientId"), c.Query("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if contributions == nil {
		contributions = []usecase.Contribution{}
	}
	c.JSON(http.StatusOK, gin.H{"date": day, "nutrientId": c.Param("nutrientId"), "contributors": contributions})
}

type fixRequest struct {
	Query string `json:"query" binding:"required"`
}

// FixNutrition starts the fix-nutrition flow for one item.
func (h *Handler) FixNutrition(c *gin.Context) {
	var req fixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	outcome, err := h.resolution.FixNutrition(c.Request.Context(), c.Param("id"), req.Query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type confirmRequest struct {
	Query string `json:"query" binding:"required"`
	FdcID string `json:"fdcId" binding:"required"`
}

// ConfirmPick applies the user's chosen candidate and persists the override.
func (h *Handler) ConfirmPick(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.resolution.ConfirmPick(c.Request.Context(), c.Param("id"), req.Query, req.FdcID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// fail maps domain errors to HTTP status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrFoodNotFound), errors.Is(err, domain.ErrSupplementNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFixInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFDCAPIFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": "food database unavailable"})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// normalizeServings applies the per-kind servings rule. Meal servings are
// snapped to quarter increments; supplement servings carry the logged dosage
// verbatim ("400" with a logged unit of "mg"), so clamping would corrupt the
// dose. Supplement dosages must be positive and finite.
func normalizeServings(kind domain.ItemKind, s float64) (float64, error) {
	if kind == domain.ItemKindSupplement {
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return 0, domain.ErrInvalidRequest
		}
		return s, nil
	}
	return clampServings(s), nil
}

// clampServings snaps a serving count to quarter increments within
// [minServings, maxServings]. Non-positive or non-finite input becomes one
// serving.
func clampServings(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return 1
	}
	s = math.Round(s*4) / 4
	if s < minServings {
		return minServings
	}
	if s > maxServings {
		return maxServings
	}
	return s
}
