package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

const (
	BrokerNATS   = "nats"
	BrokerMemory = "memory"
)

// Config holds everything the API process reads from the environment.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"forum"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTSecret          string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL           time.Duration `env:"JWT_TTL" envDefault:"72h"`
	ResetTTL           time.Duration `env:"RESET_TTL" envDefault:"1h"`
	PrivateEmailDomain string        `env:"PRIVATE_EMAIL_DOMAIN" envDefault:"private.forum.local"`

	NATSURL       string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	EventBroker   string `env:"EVENT_BROKER" envDefault:"nats"`
	ImageBucket   string `env:"IMAGE_BUCKET" envDefault:"forum-images"`
	MaxImageBytes int64  `env:"MAX_IMAGE_BYTES" envDefault:"5242880"`
	PublicURL     string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.EventBroker != BrokerNATS && cfg.EventBroker != BrokerMemory {
		return nil, fmt.Errorf("unknown EVENT_BROKER %q", cfg.EventBroker)
	}
	if cfg.MaxImageBytes <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}
	return &cfg, nil
}

// DSN builds the Postgres connection string used by gorm.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}
