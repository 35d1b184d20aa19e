package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"foodies_backend/content"
	"foodies_backend/logging"
	"foodies_backend/models"
	"foodies_backend/store"
)

// CreateMealRequest is the payload accepted by CreateMeal. Instructions are Markdown.
type CreateMealRequest struct {
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	Image        string `json:"image"`
	Instructions string `json:"instructions"`
	Creator      string `json:"creator"`
	CreatorEmail string `json:"creator_email"`
}

const maxCreateBodyBytes = 1 << 20

func GetMeals(s store.MealStore, w http.ResponseWriter, r *http.Request) {
	meals, err := s.ListMeals(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("Failed to list meals", zap.Error(err))
		http.Error(w, "Failed to list meals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, meals)
}

func GetMeal(s store.MealStore, w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["mealSlug"]

	meal, err := s.GetMealBySlug(r.Context(), slug)
	if errors.Is(err, store.ErrMealNotFound) {
		http.Error(w, "No matching meal found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("Failed to retrieve meal", zap.String("slug", slug), zap.Error(err))
		http.Error(w, "Failed to retrieve meal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, meal)
}

func CreateMeal(s store.MealStore, w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req CreateMealRequest
	body := http.MaxBytesReader(w, r.Body, maxCreateBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		logger.Info("Failed to decode request body", zap.Error(err))
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	meal := models.Meal{
		Slug:         content.Slugify(req.Title),
		Title:        strings.TrimSpace(req.Title),
		Summary:      strings.TrimSpace(req.Summary),
		Image:        strings.TrimSpace(req.Image),
		Instructions: req.Instructions,
		Creator:      strings.TrimSpace(req.Creator),
		CreatorEmail: req.CreatorEmail,
	}
	if meal.Title != "" && meal.Slug == "" {
		http.Error(w, "Title must contain letters or digits", http.StatusBadRequest)
		return
	}
	if err := meal.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	instructions, err := content.Instructions(req.Instructions)
	if err != nil {
		logger.Error("Failed to render instructions", zap.Error(err))
		http.Error(w, "Failed to render instructions", http.StatusInternalServerError)
		return
	}
	if instructions == "" {
		http.Error(w, "Instructions are empty after sanitizing", http.StatusBadRequest)
		return
	}
	meal.Instructions = instructions

	err = s.SaveMeal(r.Context(), meal)
	if errors.Is(err, store.ErrMealExists) {
		http.Error(w, "A meal with this title already exists", http.StatusConflict)
		return
	}
	if err != nil {
		logger.Error("Failed to create meal", zap.String("slug", meal.Slug), zap.Error(err))
		http.Error(w, "Failed to create meal", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusCreated, meal)
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("Failed to encode response", zap.Error(err))
	}
}
