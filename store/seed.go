package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"foodies_backend/models"
)

type seedFile struct {
	Meals []models.Meal `yaml:"meals"`
}

// LoadSeed reads a YAML document with a top-level "meals" list.
func LoadSeed(path string) ([]models.Meal, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, m := range f.Meals {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("seed meal %d (%q): %w", i, m.Slug, err)
		}
	}
	return f.Meals, nil
}

// Seed saves every meal that is not stored yet and returns how many were inserted.
func Seed(ctx context.Context, s MealStore, meals []models.Meal) (int, error) {
	inserted := 0
	for _, m := range meals {
		err := s.SaveMeal(ctx, m)
		if errors.Is(err, ErrMealExists) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
