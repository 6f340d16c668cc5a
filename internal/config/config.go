package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	DatabaseURL        string   `envconfig:"DATABASE_URL" required:"true" validate:"required"`
	JWTSecret          string   `envconfig:"JWT_SECRET" default:"default-super-secret-key" validate:"required"` // CHANGE THIS IN PRODUCTION!
	HTTPPort           string   `envconfig:"HTTP_PORT" default:"8080" validate:"required,numeric"`
	TokenExpirationHrs int      `envconfig:"JWT_EXPIRATION_HOURS" default:"24" validate:"gt=0"`
	Broker             string   `envconfig:"BROKER" default:"memory" validate:"oneof=memory redis kafka"`
	RedisAddr          string   `envconfig:"REDIS_ADDR" default:"localhost:6379" validate:"required_if=Broker redis"`
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092" validate:"required_if=Broker kafka"`
	NotifyChannel      string   `envconfig:"NOTIFY_CHANNEL" default:"channel_for_everyone" validate:"required"`
	AllowedOrigins     []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173,http://127.0.0.1:8000"`
	RejectBlankMessage bool     `envconfig:"MESSAGE_REJECT_BLANK" default:"false"`
	DisplayTimezone    string   `envconfig:"DISPLAY_TIMEZONE" default:"UTC"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat          string   `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	RunMigrations      bool     `envconfig:"RUN_MIGRATIONS" default:"true"`

	// Derived values, filled in by LoadConfig.
	TokenExpiration time.Duration  `ignored:"true"`
	DisplayLocation *time.Location `ignored:"true"`
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration from environment: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, TokenExp=%s, Broker=%s, Channel=%s",
		cfg.HTTPPort, cfg.TokenExpiration, cfg.Broker, cfg.NotifyChannel)
	return &cfg, nil
}

// finalize validates the decoded values and computes derived fields.
func (c *Config) finalize() error {
	c.Broker = strings.ToLower(strings.TrimSpace(c.Broker))
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}
	c.DisplayLocation = loc
	c.TokenExpiration = time.Hour * time.Duration(c.TokenExpirationHrs)
	return nil
}
