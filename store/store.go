// Package store holds the meal data-access layer used by the page and API handlers.
package store

import (
	"context"
	"errors"
	"sync"

	"foodies_backend/models"
)

var (
	// ErrMealNotFound is returned when no meal matches the requested slug.
	ErrMealNotFound = errors.New("meal not found")
	// ErrMealExists is returned by SaveMeal when the slug is already taken.
	ErrMealExists = errors.New("meal already exists")
)

// MealStore reads and writes meal records keyed by slug.
type MealStore interface {
	GetMealBySlug(ctx context.Context, slug string) (*models.Meal, error)
	ListMeals(ctx context.Context) ([]models.Meal, error)
	SaveMeal(ctx context.Context, meal models.Meal) error
}

type lookup struct {
	meal *models.Meal
	err  error
}

// CachedStore memoizes GetMealBySlug results. It is meant to live for a single
// request so the metadata and page renderers share one backend query.
type CachedStore struct {
	MealStore

	mu      sync.Mutex
	lookups map[string]lookup
}

// Cached wraps s with a fresh lookup cache.
func Cached(s MealStore) *CachedStore {
	return &CachedStore{MealStore: s, lookups: make(map[string]lookup)}
}

// GetMealBySlug returns the cached result for slug, querying the wrapped store on first use.
// Only found and not-found outcomes are cached; backend failures are retried.
func (c *CachedStore) GetMealBySlug(ctx context.Context, slug string) (*models.Meal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.lookups[slug]; ok {
		return copyMeal(l.meal), l.err
	}

	meal, err := c.MealStore.GetMealBySlug(ctx, slug)
	if err != nil && !errors.Is(err, ErrMealNotFound) {
		return nil, err
	}
	c.lookups[slug] = lookup{meal: copyMeal(meal), err: err}
	return meal, err
}

func copyMeal(m *models.Meal) *models.Meal {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}
