package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"menstrual_tracker_daemon/internal/domain/cycle"
)

// Supported history database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultProjectionCycles is how many cycles ahead the calendar projects.
const DefaultProjectionCycles = 3

// Shared validator instance for configuration structs
var validate = validator.New()

// AppConfig holds all configuration for the daemon
type AppConfig struct {
	Environment     string
	LogLevel        string
	HTTPListenAddr  string
	APIToken        string // empty disables API authentication
	DatabaseDriver  string
	DatabaseURL     string // DSN for postgres, file path for sqlite
	DataDir         string
	TrackerFile     string
	RefreshCronSpec string
	Tracker         TrackerConfig
}

// TrackerConfig is the cycle configuration block. It is read from the YAML
// tracker file and each key can be overridden through an environment
// variable, so a file is not strictly required.
type TrackerConfig struct {
	LastPeriodStart         string `yaml:"last_period_start" validate:"required,datetime=2006-01-02"`
	CycleLength             int    `yaml:"cycle_length" validate:"gt=0"`
	PeriodLength            int    `yaml:"period_length" validate:"gt=0"`
	ShowFertilityOnCalendar bool   `yaml:"show_fertility_on_calendar"`
	ProjectionCycles        int    `yaml:"projection_cycles" validate:"gte=1"`
}

// CycleConfig converts the raw block into the domain configuration and
// enforces the cross-field invariants.
func (t TrackerConfig) CycleConfig() (cycle.Config, error) {
	start, err := cycle.ParseDate(t.LastPeriodStart)
	if err != nil {
		return cycle.Config{}, err
	}
	cfg := cycle.Config{
		LastPeriodStart: cycle.DateOf(start),
		CycleLength:     t.CycleLength,
		PeriodLength:    t.PeriodLength,
	}
	if err := cfg.Validate(); err != nil {
		return cycle.Config{}, err
	}
	return cfg, nil
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.HTTPListenAddr = os.Getenv("HTTP_LISTEN_ADDR")
	if cfg.HTTPListenAddr == "" {
		cfg.HTTPListenAddr = ":8099"
	}

	cfg.APIToken = os.Getenv("API_TOKEN")

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	cfg.DatabaseDriver = strings.ToLower(os.Getenv("DATABASE_DRIVER"))
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = DriverSQLite
	}
	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q (want %q or %q)", cfg.DatabaseDriver, DriverSQLite, DriverPostgres)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver == DriverPostgres {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
		cfg.DatabaseURL = filepath.Join(cfg.DataDir, "history.db")
	}

	cfg.TrackerFile = os.Getenv("TRACKER_CONFIG_FILE")
	if cfg.TrackerFile == "" {
		cfg.TrackerFile = filepath.Join(cfg.DataDir, "tracker.yaml")
	}

	cfg.RefreshCronSpec = os.Getenv("REFRESH_CRON_SPEC")
	if cfg.RefreshCronSpec == "" {
		cfg.RefreshCronSpec = "5 0 * * *" // Default: 00:05 daily, just after the day rolls over
	}

	tracker, err := LoadTracker(cfg.TrackerFile)
	if err != nil {
		return nil, err
	}
	cfg.Tracker = tracker

	return cfg, nil
}

// LoadTracker reads the tracker block from the YAML file at path and applies
// environment overrides plus defaults on top. A missing file is fine; the
// result is validated either way. The watcher calls this again on every file
// change.
func LoadTracker(path string) (TrackerConfig, error) {
	t := TrackerConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &t); err != nil {
			return TrackerConfig{}, fmt.Errorf("invalid tracker config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration
	default:
		return TrackerConfig{}, fmt.Errorf("failed to read tracker config %s: %w", path, err)
	}

	if v := os.Getenv("LAST_PERIOD_START"); v != "" {
		t.LastPeriodStart = v
	}
	if v := os.Getenv("CYCLE_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return TrackerConfig{}, fmt.Errorf("invalid CYCLE_LENGTH: %w", err)
		}
		t.CycleLength = n
	}
	if v := os.Getenv("PERIOD_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return TrackerConfig{}, fmt.Errorf("invalid PERIOD_LENGTH: %w", err)
		}
		t.PeriodLength = n
	}
	if v := os.Getenv("SHOW_FERTILITY_ON_CALENDAR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return TrackerConfig{}, fmt.Errorf("invalid SHOW_FERTILITY_ON_CALENDAR: %w", err)
		}
		t.ShowFertilityOnCalendar = b
	}
	if v := os.Getenv("PROJECTION_CYCLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return TrackerConfig{}, fmt.Errorf("invalid PROJECTION_CYCLES: %w", err)
		}
		t.ProjectionCycles = n
	}

	if t.CycleLength == 0 {
		t.CycleLength = cycle.DefaultCycleLength
	}
	if t.PeriodLength == 0 {
		t.PeriodLength = cycle.DefaultPeriodLength
	}
	if t.ProjectionCycles == 0 {
		t.ProjectionCycles = DefaultProjectionCycles
	}

	if err := validate.Struct(t); err != nil {
		return TrackerConfig{}, fmt.Errorf("tracker config validation failed: %w", err)
	}
	if _, err := t.CycleConfig(); err != nil {
		return TrackerConfig{}, err
	}
	return t, nil
}
