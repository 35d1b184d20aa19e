package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"

	defaultPort         = "8080"
	defaultSQLitePath   = "meals.db"
	defaultImagesDir    = "public/images"
	defaultLogLevel     = "info"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// Config captures the runtime configuration of the service.
type Config struct {
	Port        string   `yaml:"port"`
	Store       string   `yaml:"store"`
	SQLitePath  string   `yaml:"sqlite_path"`
	ProjectID   string   `yaml:"firestore_project"`
	Credentials string   `yaml:"credentials_file"`
	ImagesDir   string   `yaml:"images_dir"`
	SeedFile    string   `yaml:"seed_file"`
	CORSOrigins []string `yaml:"cors_origins"`
	ImageHosts  []string `yaml:"image_hosts"`
	LogLevel    string   `yaml:"log_level"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Load builds the configuration from defaults, then the YAML file named by
// FOODIES_CONFIG (if any), then individual environment variables.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:         defaultPort,
		Store:        StoreSQLite,
		SQLitePath:   defaultSQLitePath,
		ImagesDir:    defaultImagesDir,
		CORSOrigins:  []string{"*"},
		LogLevel:     defaultLogLevel,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	if path := getenv("FOODIES_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	setString(&cfg.Port, getenv("PORT"))
	setString(&cfg.Store, getenv("FOODIES_STORE"))
	setString(&cfg.SQLitePath, getenv("FOODIES_SQLITE_PATH"))
	setString(&cfg.ProjectID, getenv("FOODIES_FIRESTORE_PROJECT"))
	setString(&cfg.Credentials, getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	setString(&cfg.ImagesDir, getenv("FOODIES_IMAGES_DIR"))
	setString(&cfg.SeedFile, getenv("FOODIES_SEED_FILE"))
	setString(&cfg.LogLevel, getenv("LOG_LEVEL"))
	if origins := splitList(getenv("FOODIES_CORS_ORIGINS")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}
	if hosts := splitList(getenv("FOODIES_IMAGE_HOSTS")); len(hosts) > 0 {
		cfg.ImageHosts = hosts
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return cfg, cfg.Validate()
}

// Validate reports configuration combinations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite store requires FOODIES_SQLITE_PATH"))
		}
	case StoreFirestore:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("firestore store requires FOODIES_FIRESTORE_PROJECT"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	return errors.Join(errs...)
}

// AllowsAnyOrigin reports whether CORS is open to every origin.
func (c Config) AllowsAnyOrigin() bool {
	for _, o := range c.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
