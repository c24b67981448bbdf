package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/today-widgets/internal/weather"
)

type AppConfig struct {
	Port string `validate:"required,numeric"`

	// Widget store.
	StoreDriver     string        `validate:"oneof=mongo memory"`
	MongoURI        string        `validate:"required_if=StoreDriver mongo"`
	MongoDatabase   string        `validate:"required"`
	MongoCollection string        `validate:"required"`
	MongoTimeout    time.Duration `validate:"gt=0"`

	// Widgets making up the dashboard payload.
	WeatherWidgetID    string   `validate:"required"`
	PassthroughWidgets []string `validate:"dive,required"`
	TimeLabelTable     string   `validate:"required"`

	// Payload cache. CacheTTL of 0 disables caching; RedisAddr switches the
	// cache from in-process to Redis.
	CacheTTL      time.Duration `validate:"gte=0"`
	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	// Forecast collector. Disabled when OpenWeatherAPIKey is empty.
	OpenWeatherAPIKey string
	OpenWeatherUnits  string `validate:"oneof=standard metric imperial"`
	Location          weather.Location
	FetchInterval     time.Duration `validate:"gt=0"`
	HTTPTimeout       time.Duration `validate:"gt=0"`

	CORSAllowOrigins string        `validate:"required"`
	LogLevel         string        `validate:"oneof=debug info warn warning error"`
	LogFormat        string        `validate:"oneof=json text"`
	ShutdownTimeout  time.Duration `validate:"gt=0"`
}

// CollectorEnabled reports whether the forecast collector should run.
func (c *AppConfig) CollectorEnabled() bool {
	return c.OpenWeatherAPIKey != ""
}

var validate = validator.New()

// Load reads configuration from the environment (and a .env file when one
// exists) with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", "mongo"))
	cfg.MongoURI = os.Getenv("MONGO_URI")
	if cfg.MongoURI == "" {
		cfg.MongoURI = os.Getenv("DB_CONN")
	}
	cfg.MongoDatabase = getenvDefault("MONGO_DATABASE", "data")
	cfg.MongoCollection = getenvDefault("MONGO_COLLECTION", "widgets")

	var err error
	if cfg.MongoTimeout, err = getenvDuration("MONGO_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	cfg.WeatherWidgetID = getenvDefault("WEATHER_WIDGET_ID", "weather")
	cfg.PassthroughWidgets = splitList(getenvDefault("PASSTHROUGH_WIDGETS", "dhall,prince"))
	cfg.TimeLabelTable = getenvDefault("TIME_LABEL_TABLE", weather.TableUTCMinus5)

	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "30s"); err != nil {
		return nil, err
	}
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getenvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherUnits = getenvDefault("OPENWEATHER_UNITS", "imperial")
	cfg.Location = weather.Location{
		City:    strings.TrimSpace(getenvDefault("WEATHER_LOCATION_CITY", "Princeton")),
		Country: strings.TrimSpace(getenvDefault("WEATHER_LOCATION_COUNTRY", "US")),
	}
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "30m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.CORSAllowOrigins = getenvDefault("CORS_ALLOW_ORIGINS", "*")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "json"))
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := weather.LookupTable(c.TimeLabelTable); err != nil {
		return fmt.Errorf("invalid TIME_LABEL_TABLE: %w", err)
	}
	if slices.Contains(c.PassthroughWidgets, c.WeatherWidgetID) {
		return fmt.Errorf("invalid PASSTHROUGH_WIDGETS: %q is the weather widget", c.WeatherWidgetID)
	}
	if slices.Contains(c.PassthroughWidgets, "weather") {
		return fmt.Errorf("invalid PASSTHROUGH_WIDGETS: %q is reserved for the weather summary", "weather")
	}
	if c.CollectorEnabled() && c.Location.City == "" {
		return fmt.Errorf("WEATHER_LOCATION_CITY is required when OPENWEATHER_API_KEY is set")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
