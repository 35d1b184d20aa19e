package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"foodies_backend/logging"
	"foodies_backend/store"
)

const (
	defaultImageHeight = 500
	maxImageHeight     = 2000
	maxImageBytes      = 10 << 20
	maxImagePixels     = 40_000_000
)

var (
	errImageHostNotAllowed = errors.New("image host not allowed")
	errImageTooLarge       = errors.New("image too large")
)

// ImageLoader opens meal image references. Absolute http(s) URLs are fetched
// with Client when their host is listed in AllowedHosts, anything else is read
// from Dir by file name.
type ImageLoader struct {
	Dir          string
	Client       *http.Client
	AllowedHosts []string
}

func (l ImageLoader) hostAllowed(host string) bool {
	for _, h := range l.AllowedHosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

func (l ImageLoader) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, err
		}
		if !l.hostAllowed(u.Hostname()) {
			return nil, fmt.Errorf("%w: %s", errImageHostNotAllowed, u.Hostname())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		var client http.Client
		if l.Client != nil {
			client = *l.Client
		}
		// Redirects must stay on allowed hosts too
		client.CheckRedirect = func(next *http.Request, via []*http.Request) error {
			if !l.hostAllowed(next.URL.Hostname()) {
				return fmt.Errorf("%w: %s", errImageHostNotAllowed, next.URL.Hostname())
			}
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: unexpected status %d", ref, resp.StatusCode)
		}
		return resp.Body, nil
	}

	// Only the base name is used so references cannot escape Dir
	return os.Open(filepath.Join(l.Dir, filepath.Base(ref)))
}

// readImage buffers at most maxImageBytes and rejects images whose declared
// dimensions exceed maxImagePixels before any pixel data is allocated.
func readImage(src io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(src, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxImageBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", errImageTooLarge, maxImageBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", errImageTooLarge, cfg.Width, cfg.Height)
	}
	return raw, nil
}

// MealImage serves the meal's image resized to the requested height, keeping the aspect ratio.
func MealImage(s store.MealStore, images ImageLoader, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	slug := mux.Vars(r)["mealSlug"]

	height := uint(defaultImageHeight)
	if raw := r.URL.Query().Get("height"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < 1 || h > maxImageHeight {
			http.Error(w, fmt.Sprintf("'height' must be between 1 and %d", maxImageHeight), http.StatusBadRequest)
			return
		}
		height = uint(h)
	}

	meal, err := s.GetMealBySlug(ctx, slug)
	if errors.Is(err, store.ErrMealNotFound) {
		http.Error(w, "No matching meal found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to retrieve meal", zap.String("slug", slug), zap.Error(err))
		http.Error(w, "Failed to retrieve meal", http.StatusInternalServerError)
		return
	}

	src, err := images.Open(ctx, meal.Image)
	if errors.Is(err, errImageHostNotAllowed) {
		logger.Warn("Refused image host", zap.String("image", meal.Image))
		http.Error(w, "Image host not allowed", http.StatusForbidden)
		return
	}
	if err != nil {
		logger.Error("Failed to fetch image", zap.String("image", meal.Image), zap.Error(err))
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}
	defer src.Close()

	raw, err := readImage(src)
	if errors.Is(err, errImageTooLarge) {
		http.Error(w, "Image too large", http.StatusUnprocessableEntity)
		return
	}
	var img image.Image
	var format string
	if err == nil {
		img, format, err = image.Decode(bytes.NewReader(raw))
	}
	if errors.Is(err, image.ErrFormat) {
		http.Error(w, "Unsupported image format", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		logger.Error("Failed to decode image", zap.String("image", meal.Image), zap.Error(err))
		http.Error(w, "Failed to decode image", http.StatusInternalServerError)
		return
	}

	// Width 0 lets resize keep the aspect ratio
	resized := resize.Resize(0, height, img, resize.Lanczos3)

	switch format {
	case "jpeg":
		w.Header().Set("Content-Type", "image/jpeg")
		err = jpeg.Encode(w, resized, nil)
	case "png":
		w.Header().Set("Content-Type", "image/png")
		err = png.Encode(w, resized)
	default:
		http.Error(w, "Unsupported image format", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		logger.Warn("Failed to encode image", zap.Error(err))
	}
}
