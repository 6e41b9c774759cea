package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

const rerankSystemPrompt = `You match a user's free-text food query against candidate entries from a food database.
Pick the single candidate that best matches what the user typed, considering brand, preparation, and portion wording.
Respond with JSON only, no prose, in exactly this shape:
{"fdcId": "<candidate fdcId or null>", "confidence": <0.0-1.0>, "needs_user_confirmation": <true|false>}
Set needs_user_confirmation to true whenever the query is ambiguous between candidates.`

// AnthropicClient serves re-ranking in-process with one Messages call and a
// JSON-only instruction.
type AnthropicClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
	log       *zap.Logger
}

// NewAnthropicClient creates an LLM-backed re-ranker.
func NewAnthropicClient(apiKey, model string, log *zap.Logger) *AnthropicClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnthropicClient{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 256,
		log:       log,
	}
}

// Rerank sends the query and up to MaxCandidates candidates in one message
// and coerces the reply into a RerankResult. Any parse miss is a failure;
// callers fall back to the top search result.
func (c *AnthropicClient) Rerank(ctx context.Context, query string, candidates []domain.FoodCandidate) (*domain.RerankResult, error) {
	if len(candidates) < 2 {
		return nil, domain.ErrInvalidRequest
	}
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []sdk.TextBlockParam{
			{Text: rerankSystemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(buildRerankPrompt(query, candidates))),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "rerank: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	result, err := parsePick(text)
	if err != nil {
		c.log.Warn("rerank reply unparseable", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	c.log.Debug("rerank pick",
		zap.String("query", query),
		zap.String("fdc_id", result.FdcID),
		zap.Float64("confidence", result.Confidence),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens))

	return result, nil
}

func buildRerankPrompt(query string, candidates []domain.FoodCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %q\n\nCandidates:\n", query)
	for i, cand := range candidates {
		fmt.Fprintf(&b, "%d. fdcId=%s description=%q", i+1, cand.FdcID, cand.Description)
		if cand.BrandOwner != "" {
			fmt.Fprintf(&b, " brand=%q", cand.BrandOwner)
		}
		if cand.DataType != "" {
			fmt.Fprintf(&b, " dataType=%s", cand.DataType)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// pickPayload mirrors the JSON shape requested in the system prompt.
type pickPayload struct {
	FdcID                 *string `json:"fdcId"`
	Confidence            float64 `json:"confidence"`
	NeedsUserConfirmation bool    `json:"needs_user_confirmation"`
}

// parsePick coerces a model reply into a RerankResult, tolerating markdown
// code fences around the JSON.
func parsePick(text string) (*domain.RerankResult, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, domain.ErrRerankUnavailable
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	var payload pickPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, eris.Wrap(err, "rerank: decode pick")
	}
	if payload.FdcID == nil || *payload.FdcID == "" {
		return nil, domain.ErrRerankUnavailable
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", domain.ErrRerankUnavailable, payload.Confidence)
	}

	return &domain.RerankResult{
		FdcID:                 *payload.FdcID,
		Confidence:            payload.Confidence,
		NeedsUserConfirmation: payload.NeedsUserConfirmation,
	}, nil
}
