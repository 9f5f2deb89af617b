package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all service configuration loaded from environment variables.
// It is built once at startup and handed to each component explicitly.
type Config struct {
	Port        int
	Environment string
	PublicURL   string
	CORSOrigins []string
	// TrustProxy lets X-Forwarded-For / X-Real-IP replace the peer address.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool

	StoreDriver string
	Mongo       MongoConfig
	PostgresDSN string
	RedisURL    string

	Auth      AuthConfig
	Stripe    StripeConfig
	RateLimit RateLimitConfig
	Contact   ContactConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type ContactConfig struct {
	S3Bucket       string
	AWSRegion      string
	AWSAccessKey   string
	AWSSecretKey   string
	SendGridAPIKey string
	ToEmail        string
	FromEmail      string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	env := getEnv("APP_ENV", "")
	if env == "" {
		env = getEnv("NODE_ENV", "development")
	}

	return Config{
		Port:        getEnvInt("PORT", 3000),
		Environment: env,
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3000"), "/"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		TrustProxy:  getEnvBool("TRUST_PROXY", false),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "globizora"),
		},
		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(getEnv("JWT_SECRET", "")),
			TokenTTL:  getEnvDuration("JWT_TTL", time.Hour),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
		},
		RateLimit: RateLimitConfig{
			Max:    getEnvInt("RATE_LIMIT_MAX", 100),
			Window: getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Contact: ContactConfig{
			S3Bucket:       getEnv("CONTACT_S3_BUCKET", ""),
			AWSRegion:      getEnv("AWS_REGION", ""),
			AWSAccessKey:   getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			ToEmail:        getEnv("CONTACT_EMAIL", ""),
			FromEmail:      getEnv("CONTACT_FROM_EMAIL", "no-reply@globizora.com"),
		},
	}
}

// Validate reports configuration that would leave the service unable to run.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	switch c.StoreDriver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// ContactArchiveEnabled is true when contact submissions should be written to S3.
func (c ContactConfig) ContactArchiveEnabled() bool {
	return c.S3Bucket != "" && c.AWSRegion != ""
}

// NotifyEnabled is true when contact submissions should be mailed to the team.
func (c ContactConfig) NotifyEnabled() bool {
	return c.SendGridAPIKey != "" && c.ToEmail != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		log.Printf("Invalid boolean for %s=%q, using %t", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(strings.TrimSpace(valueStr))
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
