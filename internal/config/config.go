// Package config provides configuration management for the application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/navikt/roomfinder/internal/models"
)

// Config is the complete service configuration, read from the environment
type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	BusinessHours BusinessHoursConfig
	RoomSource    RoomSourceConfig
	Broker        BrokerConfig
	Booking       BookingConfig
	Log           LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownWait time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	TimeZone     string        `envconfig:"TIMEZONE" default:"Local"`
}

// RedisConfig holds Redis/Valkey configuration
type RedisConfig struct {
	Enabled bool `envconfig:"REDIS_ENABLED" default:"false"`
	// URI is prioritized if provided, otherwise individual connection parameters are used
	URI       string `envconfig:"REDIS_URI"`
	Host      string `envconfig:"REDIS_HOST" default:"localhost"`
	Port      string `envconfig:"REDIS_PORT" default:"6379"`
	Username  string `envconfig:"REDIS_USERNAME"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"roomfinder:"`
	// How long bookings are retained after the day they belong to ends (0 keeps them forever)
	BookingTTL time.Duration `envconfig:"REDIS_BOOKING_TTL" default:"2160h"`
	// How long a cached room directory snapshot stays usable
	RoomCacheTTL time.Duration `envconfig:"REDIS_ROOM_CACHE_TTL" default:"24h"`
}

// BusinessHoursConfig describes the bookable window and its drawing scale
type BusinessHoursConfig struct {
	StartHour       int     `envconfig:"BUSINESS_START_HOUR" default:"8"`
	EndHour         int     `envconfig:"BUSINESS_END_HOUR" default:"18"`
	PixelsPerHour   float64 `envconfig:"PIXELS_PER_HOUR" default:"100"`
	RoomColumnWidth float64 `envconfig:"ROOM_COLUMN_WIDTH" default:"180"`
}

// RoomSourceConfig points at the room directory collaborator. An empty URL
// serves the built-in campus catalog.
type RoomSourceConfig struct {
	URL             string        `envconfig:"ROOM_SOURCE_URL"`
	Token           string        `envconfig:"ROOM_SOURCE_TOKEN"`
	Timeout         time.Duration `envconfig:"ROOM_SOURCE_TIMEOUT" default:"30s"`
	RefreshInterval time.Duration `envconfig:"ROOM_REFRESH_INTERVAL" default:"15m"`
}

// BrokerConfig holds the AMQP settings for booking events. An empty URL disables publishing.
type BrokerConfig struct {
	URL      string `envconfig:"AMQP_URL"`
	Exchange string `envconfig:"BOOKING_EXCHANGE" default:""`
}

// BookingConfig holds booking submission policy
type BookingConfig struct {
	ImportSecret      string        `envconfig:"BOOKING_IMPORT_SECRET"`
	RequestsPerSecond float64       `envconfig:"BOOKING_RPS" default:"5"`
	Burst             int           `envconfig:"BOOKING_BURST" default:"10"`
	SoonWindow        time.Duration `envconfig:"AVAILABLE_SOON_WINDOW" default:"30m"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads an optional .env file and then the environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Window().Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid business hours: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Window converts the business hours settings to the layout model
func (c Config) Window() models.BusinessHours {
	return models.BusinessHours{
		StartHour:       c.BusinessHours.StartHour,
		EndHour:         c.BusinessHours.EndHour,
		PixelsPerHour:   c.BusinessHours.PixelsPerHour,
		RoomColumnWidth: c.BusinessHours.RoomColumnWidth,
	}
}

// Location resolves the configured time zone
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Server.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", c.Server.TimeZone, err)
	}
	return loc, nil
}

// NewTestConfig returns defaults suitable for tests
func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         "8889",
			ReadTimeout:  15 * time.Second,
			IdleTimeout:  60 * time.Second,
			ShutdownWait: time.Second,
			TimeZone:     "UTC",
		},
		Redis: RedisConfig{
			KeyPrefix:    "test:",
			BookingTTL:   24 * time.Hour,
			RoomCacheTTL: time.Hour,
		},
		BusinessHours: BusinessHoursConfig{StartHour: 8, EndHour: 18, PixelsPerHour: 100, RoomColumnWidth: 180},
		RoomSource:    RoomSourceConfig{Timeout: time.Second},
		Booking:       BookingConfig{RequestsPerSecond: 100, Burst: 100, SoonWindow: 30 * time.Minute},
		Log:           LogConfig{Level: "debug", Format: "text"},
	}
}
