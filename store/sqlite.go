package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"foodies_backend/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS meals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	slug TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	image TEXT NOT NULL,
	summary TEXT NOT NULL,
	instructions TEXT NOT NULL,
	creator TEXT NOT NULL,
	creator_email TEXT NOT NULL
)`

const mealColumns = "slug, title, image, summary, instructions, creator, creator_email"

// SQLStore keeps meals in a SQLite database file.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the meals table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create meals table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) GetMealBySlug(ctx context.Context, slug string) (*models.Meal, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+mealColumns+" FROM meals WHERE slug = ?", slug)

	meal, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query meal %q: %w", slug, err)
	}
	return meal, nil
}

func (s *SQLStore) ListMeals(ctx context.Context) ([]models.Meal, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+mealColumns+" FROM meals ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	meals := []models.Meal{}
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		meals = append(meals, *meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}

func (s *SQLStore) SaveMeal(ctx context.Context, meal models.Meal) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO meals ("+mealColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		meal.Slug, meal.Title, meal.Image, meal.Summary, meal.Instructions, meal.Creator, meal.CreatorEmail,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrMealExists
		}
		return fmt.Errorf("insert meal %q: %w", meal.Slug, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeal(sc scanner) (*models.Meal, error) {
	var m models.Meal
	if err := sc.Scan(&m.Slug, &m.Title, &m.Image, &m.Summary, &m.Instructions, &m.Creator, &m.CreatorEmail); err != nil {
		return nil, err
	}
	return &m, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
