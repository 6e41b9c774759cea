package usda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

// Client handles communication with the USDA FoodData Central API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	log         *zap.Logger
}

// NewClient creates a new FDC API client.
func NewClient(apiKey, baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	// FDC allows 1000 requests per hour; 1000/3600 ≈ 0.278 requests/sec.
	limiter := rate.NewLimiter(rate.Limit(0.278), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
		log:         log,
	}
}

// searchResponse is the FDC search wire shape.
type searchResponse struct {
	Foods     []wireFood `json:"foods"`
	TotalHits int        `json:"totalHits"`
}

// wireFood is the FDC food wire shape, shared by search hits and detail
// responses.
type wireFood struct {
	FdcID           json.Number    `json:"fdcId"`
	Description     string         `json:"description"`
	DataType        string         `json:"dataType,omitempty"`
	BrandOwner      string         `json:"brandOwner,omitempty"`
	ServingSize     float64        `json:"servingSize,omitempty"`
	ServingSizeUnit string         `json:"servingSizeUnit,omitempty"`
	HouseholdText   string         `json:"householdServingFullText,omitempty"`
	FoodNutrients   []wireNutrient `json:"foodNutrients"`
}

type wireNutrient struct {
	NutrientID     json.Number `json:"nutrientId"`
	NutrientName   string      `json:"nutrientName"`
	NutrientNumber string      `json:"nutrientNumber,omitempty"`
	UnitName       string      `json:"unitName"`
	Value          float64     `json:"value"`

	// Detail responses nest the nutrient description.
	Nutrient *struct {
		ID       json.Number `json:"id"`
		Name     string      `json:"name"`
		UnitName string      `json:"unitName"`
	} `json:"nutrient,omitempty"`
	Amount float64 `json:"amount,omitempty"`
}

// searchAttempts is the total request budget for one search, first try
// included.
const searchAttempts = 3

func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// sleepBetweenAttempts backs off between retries. The final attempt falls
// through to the caller without sleeping.
func sleepBetweenAttempts(attempt int) {
	if attempt < searchAttempts {
		time.Sleep(exponentialBackoff(attempt))
	}
}

// doRequest executes an HTTP GET request with proper headers and error handling.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "TiberaHealth/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFDCAPIFailure, err)
	}

	return resp, nil
}

// SearchFoods searches the FDC database and returns candidates in the
// upstream rank order.
func (c *Client) SearchFoods(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	endpoint := fmt.Sprintf("%s/v1/foods/search", c.baseURL)
	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", "Survey (FNDDS),Foundation,Branded")
	params.Add("pageSize", "25")

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	// Retry up to searchAttempts times for transient failures.
	var lastErr error
	for attempt := 1; attempt <= searchAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			c.log.Warn("fdc search request failed",
				zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			sleepBetweenAttempts(attempt)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if resp.StatusCode == http.StatusNotFound {
				return nil, domain.ErrFoodNotFound
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = domain.ErrRateLimited
				sleepBetweenAttempts(attempt)
				continue
			}
			c.log.Warn("fdc search bad status",
				zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrFDCAPIFailure, resp.StatusCode)
			sleepBetweenAttempts(attempt)
			continue
		}

		var searchResp searchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		if len(searchResp.Foods) == 0 {
			return nil, domain.ErrFoodNotFound
		}

		candidates := make([]domain.FoodCandidate, 0, len(searchResp.Foods))
		for _, f := range searchResp.Foods {
			candidates = append(candidates, domain.FoodCandidate{
				FdcID:       f.FdcID.String(),
				Description: f.Description,
				DataType:    f.DataType,
				BrandOwner:  f.BrandOwner,
			})
		}
		c.log.Debug("fdc search ok",
			zap.String("query", query), zap.Int("hits", len(candidates)))
		return candidates, nil
	}

	return nil, lastErr
}

// GetFood retrieves detailed nutrition information for one FDC entry.
func (c *Client) GetFood(ctx context.Context, fdcID string) (*domain.Food, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/food/%s", c.baseURL, url.PathEscape(fdcID))
	params := url.Values{}
	params.Add("api_key", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrFoodNotFound
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrFDCAPIFailure, resp.StatusCode, string(body))
	}

	var food wireFood
	if err := json.NewDecoder(resp.Body).Decode(&food); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return mapFood(&food), nil
}

// servingSizeText renders the wire serving fields into the free-text form the
// serving-size parser expects; branded foods often carry a household text
// ("2 capsules") which is preferred over the numeric gram weight.
func servingSizeText(f *wireFood) string {
	if f.HouseholdText != "" {
		return f.HouseholdText
	}
	if f.ServingSize > 0 && f.ServingSizeUnit != "" {
		return strconv.FormatFloat(f.ServingSize, 'f', -1, 64) + " " + f.ServingSizeUnit
	}
	return ""
}
