package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr          string
	DatabaseURL   string
	RunMigrations bool
	CORSOrigins   string

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel  string
	LogPretty bool

	Payment PaymentConfig
	Kafka   KafkaConfig
	Redis   RedisConfig
}

type PaymentConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	ReturnURL     string
}

type KafkaConfig struct {
	Brokers         []string
	OrderTopic      string
	DeadLetterTopic string
}

type RedisConfig struct {
	Addr           string
	Password       string
	IdempotencyTTL time.Duration
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("PAYMENT_RETURN_URL", "http://localhost:3000/checkout/complete")
	v.SetDefault("KAFKA_ORDER_TOPIC", "orders.events")
	v.SetDefault("KAFKA_DEAD_LETTER_TOPIC", "payments.webhooks.dlq")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	return v
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Addr:          v.GetString("APP_ADDR"),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		RunMigrations: v.GetBool("RUN_MIGRATIONS"),
		CORSOrigins:   v.GetString("CORS_ORIGINS"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTTTL:        v.GetDuration("JWT_TTL"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogPretty:     v.GetBool("LOG_PRETTY"),
		Payment: PaymentConfig{
			SecretKey:     v.GetString("PAYMENT_SECRET_KEY"),
			WebhookSecret: v.GetString("PAYMENT_WEBHOOK_SECRET"),
			Currency:      strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
			ReturnURL:     v.GetString("PAYMENT_RETURN_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:         splitList(v.GetString("KAFKA_BROKERS")),
			OrderTopic:      v.GetString("KAFKA_ORDER_TOPIC"),
			DeadLetterTopic: v.GetString("KAFKA_DEAD_LETTER_TOPIC"),
		},
		Redis: RedisConfig{
			Addr:           v.GetString("REDIS_ADDR"),
			Password:       v.GetString("REDIS_PASSWORD"),
			IdempotencyTTL: v.GetDuration("IDEMPOTENCY_TTL"),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is not set")
	}
	return cfg, nil
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
