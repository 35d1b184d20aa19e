package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"foodies_backend/logging"
	"foodies_backend/models"
	"foodies_backend/store"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Metadata is the title and description placed in the page head.
type Metadata struct {
	Title       string
	Description string
}

type document struct {
	Meta Metadata
	Body template.HTML
}

type mealView struct {
	models.Meal
	// Instructions are stored already sanitized (see package content) and
	// are injected without escaping.
	Instructions template.HTML
	// CreatorHref is the complete href attribute. Built here because the
	// template URL normaliser would percent-encode valid addresses.
	CreatorHref template.HTMLAttr
}

func creatorHref(email string) template.HTMLAttr {
	return template.HTMLAttr(`href="` + html.EscapeString("mailto:"+email) + `"`)
}

// GenerateMetadata looks up the meal and returns its page title and description.
// It returns store.ErrMealNotFound when the slug is unknown.
func GenerateMetadata(ctx context.Context, s store.MealStore, slug string) (Metadata, error) {
	meal, err := s.GetMealBySlug(ctx, slug)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{Title: meal.Title, Description: meal.Summary}, nil
}

// RenderMealPage looks up the meal and renders its header and instructions.
// It returns store.ErrMealNotFound when the slug is unknown.
func RenderMealPage(ctx context.Context, s store.MealStore, slug string) (template.HTML, error) {
	meal, err := s.GetMealBySlug(ctx, slug)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	view := mealView{
		Meal:         *meal,
		Instructions: template.HTML(meal.Instructions),
		CreatorHref:  creatorHref(meal.CreatorEmail),
	}
	if err := pages.ExecuteTemplate(&buf, "meal", view); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// MealPage serves the meal detail page for the {mealSlug} route variable.
func MealPage(s store.MealStore, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := mux.Vars(r)["mealSlug"]

	// Metadata and body share one lookup
	cached := store.Cached(s)

	meta, err := GenerateMetadata(ctx, cached, slug)
	if err != nil {
		pageError(w, r, slug, err)
		return
	}
	body, err := RenderMealPage(ctx, cached, slug)
	if err != nil {
		pageError(w, r, slug, err)
		return
	}

	writeDocument(w, r, http.StatusOK, document{Meta: meta, Body: body})
}

// NotFoundPage renders the shared 404 page.
func NotFoundPage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "not_found", nil); err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	writeDocument(w, r, http.StatusNotFound, document{
		Meta: Metadata{Title: "Meal not found"},
		Body: template.HTML(buf.String()),
	})
}

func pageError(w http.ResponseWriter, r *http.Request, slug string, err error) {
	if errors.Is(err, store.ErrMealNotFound) {
		NotFoundPage(w, r)
		return
	}
	logging.FromContext(r.Context()).Error("Failed to load meal", zap.String("slug", slug), zap.Error(err))
	http.Error(w, "Failed to load meal", http.StatusInternalServerError)
}

func writeDocument(w http.ResponseWriter, r *http.Request, code int, doc document) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "document", doc); err != nil {
		logging.FromContext(r.Context()).Error("Failed to render page", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}
