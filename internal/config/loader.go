package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/program-explorer/internal/calendar"
)

// Storage backends for the bookmark record store.
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
)

// FileEnv names the optional YAML file providing base values.
const FileEnv = "EXPLORER_CONFIG_FILE"

// Config captures configuration values for the program explorer.
type Config struct {
	HTTPPort     int            `yaml:"http_port"`
	DataSource   string         `yaml:"data_source"`
	Storage      string         `yaml:"storage"`
	SQLiteDSN    string         `yaml:"sqlite_dsn"`
	StateFile    string         `yaml:"state_file"`
	TimeZone     string         `yaml:"timezone"`
	FetchTimeout time.Duration  `yaml:"fetch_timeout"`
	LogLevel     string         `yaml:"log_level"`
	Calendar     CalendarConfig `yaml:"calendar"`

	// Location is TimeZone resolved by Load.
	Location *time.Location `yaml:"-"`
}

// CalendarConfig holds the calendar grid geometry.
type CalendarConfig struct {
	PixelsPerMinute float64 `yaml:"pixels_per_minute"`
	MinEventHeight  float64 `yaml:"min_event_height"`
	ColumnAreaWidth float64 `yaml:"column_area_width"`
	MinColumnWidth  float64 `yaml:"min_column_width"`
	ColumnGap       float64 `yaml:"column_gap"`
	MaxEvents       int     `yaml:"max_events"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPPort:   8080,
		DataSource: "data/fullData.json",
		Storage:    StorageSQLite,
		SQLiteDSN:  "explorer.db",
		StateFile:  "bookmarks.json",
		TimeZone:   "America/Los_Angeles",
		LogLevel:   "info",
		Calendar: CalendarConfig{
			PixelsPerMinute: 5,
			MinEventHeight:  40,
			ColumnAreaWidth: 960,
			MinColumnWidth:  150,
			ColumnGap:       8,
			MaxEvents:       100,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// EXPLORER_CONFIG_FILE and the process environment, in increasing precedence.
//
// Every missing or invalid variable is collected and reported in one error.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}

	env := envReader{}
	env.int("EXPLORER_HTTP_PORT", &cfg.HTTPPort, func(v int) bool { return v > 0 && v <= 65535 })
	env.string("EXPLORER_DATA_SOURCE", &cfg.DataSource)
	env.string("EXPLORER_STORAGE", &cfg.Storage)
	env.string("EXPLORER_SQLITE_DSN", &cfg.SQLiteDSN)
	env.string("EXPLORER_STATE_FILE", &cfg.StateFile)
	env.string("EXPLORER_TIMEZONE", &cfg.TimeZone)
	env.duration("EXPLORER_FETCH_TIMEOUT", &cfg.FetchTimeout)
	env.string("EXPLORER_LOG_LEVEL", &cfg.LogLevel)
	env.float("EXPLORER_PIXELS_PER_MINUTE", &cfg.Calendar.PixelsPerMinute)
	env.float("EXPLORER_MIN_EVENT_HEIGHT", &cfg.Calendar.MinEventHeight)
	env.float("EXPLORER_COLUMN_AREA_WIDTH", &cfg.Calendar.ColumnAreaWidth)
	env.float("EXPLORER_MIN_COLUMN_WIDTH", &cfg.Calendar.MinColumnWidth)
	env.float("EXPLORER_COLUMN_GAP", &cfg.Calendar.ColumnGap)
	env.int("EXPLORER_MAX_CALENDAR_EVENTS", &cfg.Calendar.MaxEvents, func(v int) bool { return v > 0 })

	missing := make([]string, 0, 1)
	invalid := env.invalid

	if strings.TrimSpace(cfg.DataSource) == "" {
		missing = append(missing, "EXPLORER_DATA_SOURCE")
	}

	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	switch cfg.Storage {
	case StorageSQLite:
		if strings.TrimSpace(cfg.SQLiteDSN) == "" {
			missing = append(missing, "EXPLORER_SQLITE_DSN")
		}
	case StorageFile:
		if strings.TrimSpace(cfg.StateFile) == "" {
			missing = append(missing, "EXPLORER_STATE_FILE")
		}
	default:
		invalid = appendOnce(invalid, "EXPLORER_STORAGE")
	}

	loc, err := time.LoadLocation(strings.TrimSpace(cfg.TimeZone))
	if err != nil {
		invalid = appendOnce(invalid, "EXPLORER_TIMEZONE")
	}
	cfg.Location = loc

	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		invalid = appendOnce(invalid, "EXPLORER_LOG_LEVEL")
	}
	if cfg.FetchTimeout < 0 {
		invalid = appendOnce(invalid, "EXPLORER_FETCH_TIMEOUT")
	}
	if cfg.Calendar.PixelsPerMinute <= 0 {
		invalid = appendOnce(invalid, "EXPLORER_PIXELS_PER_MINUTE")
	}
	if cfg.Calendar.ColumnAreaWidth <= 0 {
		invalid = appendOnce(invalid, "EXPLORER_COLUMN_AREA_WIDTH")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required configuration is missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("configuration values are invalid: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// overlayFile decodes the YAML file at path over the receiver. Unknown keys
// are rejected so typos do not pass silently.
func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// CalendarOptions converts the grid geometry for the calendar package.
func (c Config) CalendarOptions() calendar.Options {
	return calendar.Options{
		PixelsPerMinute:    c.Calendar.PixelsPerMinute,
		MinimumHeight:      c.Calendar.MinEventHeight,
		ColumnAreaWidth:    c.Calendar.ColumnAreaWidth,
		MinimumColumnWidth: c.Calendar.MinColumnWidth,
		ColumnGap:          c.Calendar.ColumnGap,
		MaxEvents:          c.Calendar.MaxEvents,
		Location:           c.Location,
	}
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", value)
	}
	return level, nil
}

type envReader struct {
	invalid []string
}

func (e *envReader) string(key string, dst *string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func (e *envReader) int(key string, dst *int, valid func(int) bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || !valid(parsed) {
		e.invalid = appendOnce(e.invalid, key)
		return
	}
	*dst = parsed
}

func (e *envReader) float(key string, dst *float64) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		e.invalid = appendOnce(e.invalid, key)
		return
	}
	*dst = parsed
}

func (e *envReader) duration(key string, dst *time.Duration) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		e.invalid = appendOnce(e.invalid, key)
		return
	}
	*dst = parsed
}

func appendOnce(list []string, key string) []string {
	for _, existing := range list {
		if existing == key {
			return list
		}
	}
	return append(list, key)
}
