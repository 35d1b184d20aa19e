package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"foodies_backend/config"
	"foodies_backend/content"
	"foodies_backend/handlers"
	"foodies_backend/logging"
	"foodies_backend/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meals, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.SeedFile != "" {
		n, err := seedMeals(ctx, meals, cfg.SeedFile)
		if err != nil {
			return err
		}
		logger.Info("Seeded meals", zap.Int("inserted", n), zap.String("file", cfg.SeedFile))
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(cfg, logger, meals),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr), zap.String("store", cfg.Store))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (store.MealStore, func(), error) {
	switch cfg.Store {
	case config.StoreFirestore:
		var opts []option.ClientOption
		if cfg.Credentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
		}
		client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create firestore client: %w", err)
		}
		return store.NewFirestoreStore(client), func() { client.Close() }, nil
	default:
		s, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
}

// seedMeals loads the YAML seed file, renders its Markdown instructions and
// stores the meals that are not present yet.
func seedMeals(ctx context.Context, s store.MealStore, path string) (int, error) {
	meals, err := store.LoadSeed(path)
	if err != nil {
		return 0, err
	}
	for i := range meals {
		html, err := content.Instructions(meals[i].Instructions)
		if err != nil {
			return 0, fmt.Errorf("seed meal %s: %w", meals[i].Slug, err)
		}
		meals[i].Instructions = html
		if err := meals[i].Validate(); err != nil {
			return 0, fmt.Errorf("seed meal %s: %w", meals[i].Slug, err)
		}
	}
	return store.Seed(ctx, s, meals)
}

func newRouter(cfg config.Config, logger *zap.Logger, meals store.MealStore) http.Handler {
	images := handlers.ImageLoader{
		Dir:          cfg.ImagesDir,
		Client:       &http.Client{Timeout: 10 * time.Second},
		AllowedHosts: cfg.ImageHosts,
	}

	r := mux.NewRouter()
	r.Use(logging.Middleware(logger))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	// Meal detail page
	r.HandleFunc("/meals/{mealSlug}", func(w http.ResponseWriter, r *http.Request) {
		handlers.MealPage(meals, w, r)
	}).Methods("GET")

	r.HandleFunc("/meals/{mealSlug}/image", func(w http.ResponseWriter, r *http.Request) {
		handlers.MealImage(meals, images, w, r)
	}).Methods("GET")

	r.HandleFunc("/api/meals", func(w http.ResponseWriter, r *http.Request) {
		handlers.GetMeals(meals, w, r)
	}).Methods("GET")

	r.HandleFunc("/api/meals", func(w http.ResponseWriter, r *http.Request) {
		handlers.CreateMeal(meals, w, r)
	}).Methods("POST")

	r.HandleFunc("/api/meals/{mealSlug}", func(w http.ResponseWriter, r *http.Request) {
		handlers.GetMeal(meals, w, r)
	}).Methods("GET")

	r.NotFoundHandler = logging.Middleware(logger)(http.HandlerFunc(handlers.NotFoundPage))

	return cors.New(corsOptions(cfg)).Handler(r)
}

// corsOptions enables credentials only for an explicit origin list; browsers
// reject credentialed responses to a wildcard origin.
func corsOptions(cfg config.Config) cors.Options {
	return cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", logging.RequestIDHeader},
		ExposedHeaders:   []string{logging.RequestIDHeader},
		AllowCredentials: !cfg.AllowsAnyOrigin(),
	}
}
