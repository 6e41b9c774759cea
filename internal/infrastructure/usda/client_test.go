package usda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com", nil)

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
	}
}

func TestSearchFoods_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "chicken breast", r.URL.Query().Get("query"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"foods": [
				{"fdcId": 171077, "description": "Chicken, broilers or fryers, breast", "dataType": "Foundation"},
				{"fdcId": 2112384, "description": "CHICKEN BREAST", "dataType": "Branded", "brandOwner": "Tyson"}
			],
			"totalHits": 2
		}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, nil)

	candidates, err := client.SearchFoods(context.Background(), "chicken breast")
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "171077", candidates[0].FdcID)
	assert.Equal(t, "Chicken, broilers or fryers, breast", candidates[0].Description)
	assert.Equal(t, "2112384", candidates[1].FdcID)
	assert.Equal(t, "Tyson", candidates[1].BrandOwner)
}

func TestSearchFoods_RetriesWithoutFinalSleep(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, nil)

	start := time.Now()
	_, err := client.SearchFoods(context.Background(), "chicken")
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, domain.ErrFDCAPIFailure)
	assert.EqualValues(t, searchAttempts, atomic.LoadInt32(&requests))
	// Backoff runs between attempts only (500ms + 1s), never after the last.
	assert.Less(t, elapsed, 3*time.Second)
}

func TestSearchFoods_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"foods": [], "totalHits": 0}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, nil)

	_, err := client.SearchFoods(context.Background(), "xyzzy")
	assert.ErrorIs(t, err, domain.ErrFoodNotFound)
}

func TestSearchFoods_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, nil)

	_, err := client.SearchFoods(context.Background(), "nothing")
	assert.ErrorIs(t, err, domain.ErrFoodNotFound)
}

func TestGetFood_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/food/171077", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"fdcId": 171077,
			"description": "Chicken, broilers or fryers, breast",
			"dataType": "Foundation",
			"foodNutrients": [
				{"nutrient": {"id": 1003, "name": "Protein", "unitName": "g"}, "amount": 31},
				{"nutrient": {"id": 1008, "name": "Energy", "unitName": "kcal"}, "amount": 165}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, nil)

	food, err := client.GetFood(context.Background(), "171077")
	require.NoError(t, err)

	assert.Equal(t, "171077", food.FdcID)
	assert.Equal(t, "Chicken, broilers or fryers, breast", food.Description)
	require.Len(t, food.Nutrients, 2)
	assert.Equal(t, "1003", food.Nutrients[0].NutrientID)
	assert.Equal(t, 31.0, food.Nutrients[0].Amount)
	assert.Equal(t, "g", food.Nutrients[0].Unit)
}

func TestGetFood_BrandedServingText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"fdcId": 2112384,
			"description": "MAGNESIUM GLYCINATE",
			"dataType": "Branded",
			"servingSize": 1060,
			"servingSizeUnit": "mg",
			"householdServingFullText": "2 capsules",
			"foodNutrients": [
				{"nutrientId": 1090, "nutrientName": "Magnesium, Mg", "unitName": "mg", "value": 200}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, nil)

	food, err := client.GetFood(context.Background(), "2112384")
	require.NoError(t, err)

	// Household text wins over the numeric serving weight.
	assert.Equal(t, "2 capsules", food.ServingSize)
	require.Len(t, food.Nutrients, 1)
	assert.Equal(t, "1090", food.Nutrients[0].NutrientID)
	assert.Equal(t, 200.0, food.Nutrients[0].Amount)
}

func TestGetFood_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, nil)

	_, err := client.GetFood(context.Background(), "999999")
	assert.ErrorIs(t, err, domain.ErrFoodNotFound)
}
