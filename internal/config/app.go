package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backends understood by the store factory.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// App is the typed application configuration.
type App struct {
	HTTP      HTTP      `mapstructure:"http"`
	Store     Store     `mapstructure:"store"`
	Database  Database  `mapstructure:"database"`
	Tables    Tables    `mapstructure:"tables"`
	Lists     Lists     `mapstructure:"lists"`
	People    []string  `mapstructure:"people" validate:"dive,notblank"`
	Users     Users     `mapstructure:"users"`
	Cache     Cache     `mapstructure:"cache"`
	Sessions  Sessions  `mapstructure:"sessions"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
}

// Users is the allow-list. Operator receives unauthorized-access notices.
type Users struct {
	Allowed  []int64 `mapstructure:"allowed" validate:"required,min=1,unique,dive,ne=0"`
	Operator int64   `mapstructure:"operator"`
}

// Tables names the tables of the backing store.
type Tables struct {
	Lists    string `mapstructure:"lists" validate:"notblank"`
	Ledger   string `mapstructure:"ledger" validate:"notblank"`
	Shopping string `mapstructure:"shopping" validate:"notblank"`
	Work     string `mapstructure:"work" validate:"notblank"`
	Budgets  string `mapstructure:"budgets"`
}

// Lists names the columns of the lists table.
type Lists struct {
	TaxonomyHeaders     []string `mapstructure:"taxonomy_headers" validate:"len=5,unique,dive,notblank"`
	PeopleHeader        string   `mapstructure:"people_header" validate:"notblank"`
	PayerHeader         string   `mapstructure:"payer_header" validate:"notblank"`
	EstablishmentHeader string   `mapstructure:"establishment_header" validate:"notblank"`
}

// Cache holds the refresh intervals of the read caches.
type Cache struct {
	TaxonomyTTL   time.Duration `mapstructure:"taxonomy_ttl" validate:"gt=0"`
	CandidatesTTL time.Duration `mapstructure:"candidates_ttl" validate:"gt=0"`
}

// Store selects the backend and bounds every call to it.
type Store struct {
	Backend string        `mapstructure:"backend" validate:"oneof=sheets sqlite"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// Database configures the SQLite backend.
type Database struct {
	Path string `mapstructure:"path" validate:"notblank"`
}

// Sessions configures session persistence and expiry.
type Sessions struct {
	Persist         bool          `mapstructure:"persist"`
	MaxIdle         time.Duration `mapstructure:"max_idle" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
}

// RateLimit bounds the events accepted per user.
type RateLimit struct {
	PerSecond float64 `mapstructure:"per_second" validate:"gte=0"`
	Burst     int     `mapstructure:"burst" validate:"gte=1"`
}

// HTTP configures the webhook server.
type HTTP struct {
	Addr         string        `mapstructure:"addr" validate:"notblank"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("tables.lists", "LISTAS")
	v.SetDefault("tables.ledger", "GASTOS")
	v.SetDefault("tables.shopping", "COMPRAS")
	v.SetDefault("tables.work", "GASTOS TRABAJO")
	v.SetDefault("tables.budgets", "PRESUPUESTOS")

	v.SetDefault("lists.taxonomy_headers", []string{"TIPO", "CATEGORIA", "SUBCATEGORIA 1", "SUBCATEGORIA 2", "SUBCATEGORIA 3"})
	v.SetDefault("lists.people_header", "PERSONA")
	v.SetDefault("lists.payer_header", "PAGADOR")
	v.SetDefault("lists.establishment_header", "ESTABLECIMIENTO")

	v.SetDefault("cache.taxonomy_ttl", 60*time.Second)
	v.SetDefault("cache.candidates_ttl", 5*time.Minute)

	v.SetDefault("store.backend", BackendSheets)
	v.SetDefault("store.timeout", 10*time.Second)
	v.SetDefault("database.path", "~/.local/share/ledger/ledger.db")

	v.SetDefault("sessions.persist", false)
	v.SetDefault("sessions.max_idle", 24*time.Hour)
	v.SetDefault("sessions.cleanup_interval", time.Hour)

	v.SetDefault("rate_limit.per_second", 2.0)
	// A full expense flow with a note is thirteen events; tapping through one
	// must never hit the limit.
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none)
// into the process environment. Variables already set win; missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !isNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// Load decodes and validates the application configuration held by v.
func Load(v *viper.Viper) (*App, error) {
	var app App
	if err := v.Unmarshal(&app); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	app.Database.Path = ExpandPath(app.Database.Path)

	if err := app.Validate(); err != nil {
		return nil, err
	}
	return &app, nil
}

// Validate checks every field constraint and reports all violations at once.
func (a *App) Validate() error {
	err := newValidator().Struct(a)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
}

// IsAllowed reports whether userID is on the allow-list.
func (a *App) IsAllowed(userID int64) bool {
	for _, id := range a.Users.Allowed {
		if id == userID {
			return true
		}
	}
	return false
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "App.")
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s item(s)", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s needs exactly %s item(s)", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "unique":
		return field + " must not repeat values"
	default:
		return fmt.Sprintf("%s failed %s%s", field, fe.Tag(), paramSuffix(fe.Param()))
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func paramSuffix(param string) string {
	if param == "" {
		return ""
	}
	return "=" + param
}
