// Package rerank provides clients for the candidate re-ranking step of the
// fix-nutrition flow. All implementations share the same graceful-degrade
// contract: any transport or schema failure is an error the caller turns
// into "use the top search result".
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

// MaxCandidates is the hard cap on candidates sent to any re-ranker.
const MaxCandidates = 18

// HTTPClient calls a hosted re-ranking endpoint.
type HTTPClient struct {
	httpClient *http.Client
	url        string
	log        *zap.Logger
}

// NewHTTPClient creates a re-ranking client for the given endpoint URL.
func NewHTTPClient(endpoint string, log *zap.Logger) *HTTPClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        endpoint,
		log:        log,
	}
}

type rerankRequest struct {
	Query      string                 `json:"query"`
	Candidates []domain.FoodCandidate `json:"candidates"`
}

type rerankResponse struct {
	Success bool `json:"success"`
	Pick    *struct {
		FdcID                 *string `json:"fdcId"`
		Confidence            float64 `json:"confidence"`
		NeedsUserConfirmation bool    `json:"needs_user_confirmation"`
	} `json:"pick,omitempty"`
}

// Rerank posts the query and up to MaxCandidates candidates and returns the
// endpoint's pick. A single candidate needs no re-ranking, so fewer than two
// is an invalid request. No retry: one miss degrades at the caller.
func (c *HTTPClient) Rerank(ctx context.Context, query string, candidates []domain.FoodCandidate) (*domain.RerankResult, error) {
	if len(candidates) < 2 {
		return nil, domain.ErrInvalidRequest
	}
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}

	payload, err := json.Marshal(rerankRequest{Query: query, Candidates: candidates})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRerankUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrRerankUnavailable, resp.StatusCode)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRerankUnavailable, err)
	}

	if !parsed.Success || parsed.Pick == nil || parsed.Pick.FdcID == nil || *parsed.Pick.FdcID == "" {
		return nil, domain.ErrRerankUnavailable
	}
	if parsed.Pick.Confidence < 0 || parsed.Pick.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", domain.ErrRerankUnavailable, parsed.Pick.Confidence)
	}

	c.log.Debug("rerank pick",
		zap.String("query", query),
		zap.Stringp("fdc_id", parsed.Pick.FdcID),
		zap.Float64("confidence", parsed.Pick.Confidence))

	return &domain.RerankResult{
		FdcID:                 *parsed.Pick.FdcID,
		Confidence:            parsed.Pick.Confidence,
		NeedsUserConfirmation: parsed.Pick.NeedsUserConfirmation,
	}, nil
}
