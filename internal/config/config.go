package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type key string

const (
	KeyLogger  = key("logger")
	KeyUUID    = key("uuid")
	KeyMetrics = key("metrics")
)

type Config struct {
	Service    Service
	Postgres   Postgres
	Centrifuge Centrifuge
	Mailer     Mailer
	Logger     Logger
	Metrics    Metrics
	Kafka      Kafka
	Platform   Platform
	App        App
	Feed       Feed
}

type Service struct {
	Name string `env:"SERVICE_NAME" env-default:"messaging-service"`
	Port string `env:"SERVICE_PORT" env-default:"8080"`
}

type Postgres struct {
	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	Database string `env:"POSTGRES_DB"`
	Host     string `env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `env:"POSTGRES_PORT" env-default:"5432"`
}

type Centrifuge struct {
	BaseURL   string        `env:"CENTRIFUGE_BASE_URL"`
	APIKey    string        `env:"CENTRIFUGE_API_KEY"`
	JWTSecret string        `env:"CENTRIFUGE_JWT_SECRET"`
	Timeout   time.Duration `env:"CENTRIFUGE_TIMEOUT" env-default:"5s"`
}

// Mailer points at the edge function that delivers notification emails.
type Mailer struct {
	URL     string        `env:"MAILER_URL"`
	APIKey  string        `env:"MAILER_API_KEY"`
	Timeout time.Duration `env:"MAILER_TIMEOUT" env-default:"10s"`
}

type Logger struct {
	Host string `env:"LOGGER_HOST"`
	Port string `env:"LOGGER_PORT"`
}

type Metrics struct {
	Host string `env:"GRAFANA_HOST"`
	Port int    `env:"GRAFANA_PORT"`
}

type Kafka struct {
	Host         string `env:"KAFKA_HOST"`
	Port         string `env:"KAFKA_PORT"`
	ProfileTopic string `env:"USER_PROFILE_TOPIC" env-default:"user_profile_updated"`
}

type Platform struct {
	Env string `env:"ENV" env-default:"dev"`
}

type App struct {
	BaseURL string `env:"APP_BASE_URL" env-default:"http://localhost:3000"`
}

// Feed configures the LISTEN/NOTIFY change feed.
type Feed struct {
	Channel      string        `env:"FEED_CHANNEL" env-default:"chat_changes"`
	MinReconnect time.Duration `env:"FEED_MIN_RECONNECT" env-default:"1s"`
	MaxReconnect time.Duration `env:"FEED_MAX_RECONNECT" env-default:"30s"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		p.User, p.Password, p.Database, p.Host, p.Port)
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read env variables: %w", err)
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
