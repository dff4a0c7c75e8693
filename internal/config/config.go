package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs from its environment.
// Gateway credentials and the webhook secret are injected into the services
// at construction; business logic never reads the environment directly.
type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	RedisAddr     string
	RedisPassword string

	GatewayBaseURL   string
	GatewayKeyID     string
	GatewayKeySecret string
	WebhookSecret    string

	Currency       string
	GatewayTimeout time.Duration
}

// Load reads configuration from the environment, with a best-effort .env load
// for local development.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName:      getenv("SERVICE_NAME", "shopcore"),
		Env:              getenv("ENV", "dev"),
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		RedisAddr:        getenv("REDIS_ADDR", ""),
		RedisPassword:    getenv("REDIS_PASSWORD", ""),
		GatewayBaseURL:   getenv("GATEWAY_BASE_URL", "https://api.razorpay.com"),
		GatewayKeyID:     getenv("GATEWAY_KEY_ID", ""),
		GatewayKeySecret: getenv("GATEWAY_KEY_SECRET", ""),
		WebhookSecret:    getenv("GATEWAY_WEBHOOK_SECRET", ""),
		Currency:         getenv("PAYMENT_CURRENCY", "INR"),
		GatewayTimeout:   getdur("GATEWAY_TIMEOUT", 10*time.Second),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
