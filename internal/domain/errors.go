package domain

import "errors"

var (
	// ErrFoodNotFound is returned when a food cannot be found in the FDC database
	ErrFoodNotFound = errors.New("food not found in FDC database")

	// ErrItemNotFound is returned when a logged item does not exist
	ErrItemNotFound = errors.New("logged item not found")

	// ErrSupplementNotFound is returned when a supplement definition does not exist
	ErrSupplementNotFound = errors.New("supplement not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrOverrideMiss is returned when no resolution override exists for a query
	ErrOverrideMiss = errors.New("no resolution override for query")

	// ErrRerankUnavailable is returned when the re-ranking backend fails or
	// returns an unusable response
	ErrRerankUnavailable = errors.New("re-ranking unavailable")

	// ErrFixInProgress is returned when a fix-nutrition operation is already
	// running for the same item
	ErrFixInProgress = errors.New("fix already in progress for item")

	// ErrFDCAPIFailure is returned when a FoodData Central API request fails
	ErrFDCAPIFailure = errors.New("FDC API request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
