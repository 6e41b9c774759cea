package domain

// FoodCandidate is a single food-search hit offered to the re-ranker.
type FoodCandidate struct {
	FdcID       string `json:"fdcId"`
	Description string `json:"description"`
	DataType    string `json:"dataType,omitempty"`
	BrandOwner  string `json:"brandOwner,omitempty"`
}

// RerankResult is the outcome of one re-ranking call. Ephemeral.
type RerankResult struct {
	FdcID                 string  `json:"fdcId"`
	Confidence            float64 `json:"confidence"` // 0–1
	NeedsUserConfirmation bool    `json:"needsUserConfirmation"`
}
