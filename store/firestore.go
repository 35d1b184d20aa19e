package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodies_backend/models"
)

const mealsCollection = "meals"

// FirestoreStore keeps meals in a Firestore collection, one document per slug.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) GetMealBySlug(ctx context.Context, slug string) (*models.Meal, error) {
	// Query on the slug field so documents written with other ids still resolve
	iter := s.client.Collection(mealsCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query meal %q: %w", slug, err)
	}

	var meal models.Meal
	if err := doc.DataTo(&meal); err != nil {
		return nil, fmt.Errorf("decode meal %q: %w", slug, err)
	}
	return &meal, nil
}

func (s *FirestoreStore) ListMeals(ctx context.Context) ([]models.Meal, error) {
	meals := []models.Meal{}
	iter := s.client.Collection(mealsCollection).OrderBy("title", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list meals: %w", err)
		}

		var meal models.Meal
		if err := doc.DataTo(&meal); err != nil {
			return nil, fmt.Errorf("decode meal %s: %w", doc.Ref.ID, err)
		}
		meals = append(meals, meal)
	}
	return meals, nil
}

func (s *FirestoreStore) SaveMeal(ctx context.Context, meal models.Meal) error {
	_, err := s.client.Collection(mealsCollection).Doc(meal.Slug).Create(ctx, meal)
	if status.Code(err) == codes.AlreadyExists {
		return ErrMealExists
	}
	if err != nil {
		return fmt.Errorf("create meal %q: %w", meal.Slug, err)
	}
	return nil
}
