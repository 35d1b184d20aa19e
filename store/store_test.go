package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"foodies_backend/models"
)

func carbonara() models.Meal {
	return models.Meal{
		Slug:         "spaghetti-carbonara",
		Title:        "Spaghetti Carbonara",
		Summary:      "Classic Italian pasta",
		Image:        "/images/carbonara.jpg",
		Instructions: "<p>Boil pasta.</p>",
		Creator:      "Mario Rossi",
		CreatorEmail: "mario@example.com",
	}
}

func openTestSQLite(t *testing.T) *SQLStore {
	t.Helper()

	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "meals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStoreGetMealBySlug(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	require.NoError(t, s.SaveMeal(ctx, carbonara()))

	meal, err := s.GetMealBySlug(ctx, "spaghetti-carbonara")
	require.NoError(t, err)
	require.Equal(t, carbonara(), *meal)

	_, err = s.GetMealBySlug(ctx, "does-not-exist")
	require.ErrorIs(t, err, ErrMealNotFound)
}

func TestSQLStoreSaveDuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	require.NoError(t, s.SaveMeal(ctx, carbonara()))
	require.ErrorIs(t, s.SaveMeal(ctx, carbonara()), ErrMealExists)
}

func TestSQLStoreNotNullViolationIsNotDuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	_, err := s.db.ExecContext(ctx, "INSERT INTO meals (slug) VALUES (?)", "bare")
	require.Error(t, err)
	require.False(t, isUniqueViolation(err))

	require.NoError(t, s.SaveMeal(ctx, carbonara()))
	_, err = s.db.ExecContext(ctx, "INSERT INTO meals ("+mealColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		"spaghetti-carbonara", "t", "i", "s", "x", "c", "c@example.com")
	require.True(t, isUniqueViolation(err))
}

func TestSQLStoreListMealsOrderedByTitle(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	meals, err := s.ListMeals(ctx)
	require.NoError(t, err)
	require.NotNil(t, meals)
	require.Empty(t, meals)

	burger := carbonara()
	burger.Slug = "juicy-cheese-burger"
	burger.Title = "Juicy Cheese Burger"
	require.NoError(t, s.SaveMeal(ctx, carbonara()))
	require.NoError(t, s.SaveMeal(ctx, burger))

	meals, err = s.ListMeals(ctx)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	require.Equal(t, "Juicy Cheese Burger", meals[0].Title)
	require.Equal(t, "Spaghetti Carbonara", meals[1].Title)
}

type countingStore struct {
	MealStore
	calls int
	err   error
}

func (c *countingStore) GetMealBySlug(ctx context.Context, slug string) (*models.Meal, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.MealStore.GetMealBySlug(ctx, slug)
}

func TestCachedStoreQueriesOnce(t *testing.T) {
	ctx := context.Background()
	backend := openTestSQLite(t)
	require.NoError(t, backend.SaveMeal(ctx, carbonara()))

	counter := &countingStore{MealStore: backend}
	cached := Cached(counter)

	for i := 0; i < 3; i++ {
		meal, err := cached.GetMealBySlug(ctx, "spaghetti-carbonara")
		require.NoError(t, err)
		require.Equal(t, "Spaghetti Carbonara", meal.Title)
		meal.Title = "mutated"
	}
	for i := 0; i < 2; i++ {
		_, err := cached.GetMealBySlug(ctx, "does-not-exist")
		require.ErrorIs(t, err, ErrMealNotFound)
	}
	require.Equal(t, 2, counter.calls)
}

func TestCachedStoreDoesNotCacheFailures(t *testing.T) {
	boom := errors.New("backend down")
	counter := &countingStore{MealStore: openTestSQLite(t), err: boom}
	cached := Cached(counter)

	_, err := cached.GetMealBySlug(context.Background(), "spaghetti-carbonara")
	require.ErrorIs(t, err, boom)
	_, err = cached.GetMealBySlug(context.Background(), "spaghetti-carbonara")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, counter.calls)
}

func TestLoadSeedAndSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
meals:
  - slug: spaghetti-carbonara
    title: Spaghetti Carbonara
    summary: Classic Italian pasta
    image: /images/carbonara.jpg
    instructions: Boil pasta.
    creator: Mario Rossi
    creator_email: mario@example.com
`), 0o600))

	meals, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	require.Equal(t, "mario@example.com", meals[0].CreatorEmail)

	ctx := context.Background()
	s := openTestSQLite(t)
	n, err := Seed(ctx, s, meals)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = Seed(ctx, s, meals)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLoadSeedRejectsMissingSlug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meals:\n  - title: Nameless\n"), 0o600))

	_, err := LoadSeed(path)
	require.Error(t, err)
}

func TestLoadSeedRejectsPartialMeal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meals:\n  - slug: bare\n    title: Bare\n"), 0o600))

	meals, err := LoadSeed(path)
	require.ErrorContains(t, err, "missing 'summary' field")
	require.Nil(t, meals)
}
