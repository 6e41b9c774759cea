// Package cache provides a thread-safe in-memory TTL cache for food detail
// lookups, so a confirm following a suggestion does not re-fetch the same
// FDC entry.
package cache

import (
	"sync"
	"time"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

type entry struct {
	food       *domain.Food
	expiration time.Time
}

// FoodCache is a thread-safe in-memory cache of food details with TTL.
type FoodCache struct {
	data  map[string]entry
	ttl   time.Duration
	mutex sync.RWMutex
}

// NewFoodCache creates a food cache with the given TTL and starts a
// background sweep of expired entries.
func NewFoodCache(ttl time.Duration) *FoodCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &FoodCache{
		data: make(map[string]entry),
		ttl:  ttl,
	}
	go c.cleanupExpired()
	return c
}

// Get retrieves a food by FDC ID. Expired entries miss.
func (c *FoodCache) Get(fdcID string) (*domain.Food, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.data[fdcID]
	if !exists || time.Now().After(e.expiration) {
		return nil, false
	}
	return e.food, true
}

// Set stores a food detail under its FDC ID.
func (c *FoodCache) Set(food *domain.Food) {
	if food == nil || food.FdcID == "" {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[food.FdcID] = entry{
		food:       food,
		expiration: time.Now().Add(c.ttl),
	}
}

// Size returns the current number of entries, expired included.
func (c *FoodCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all entries.
func (c *FoodCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]entry)
}

// cleanupExpired removes expired entries periodically.
func (c *FoodCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, e := range c.data {
			if now.After(e.expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
