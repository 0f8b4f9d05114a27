package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL   string
	DBHost        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPort        string
	RedisAddr     string
	RedisPort     string
	RedisPassword string

	HTTPAddr     string
	BaseURL      string
	AllowOrigins []string

	TelegramToken string
	BotURL        string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceSingle   string
	StripePriceBundle   string

	DecoderURL     string
	DecoderMode    string
	DecoderTimeout time.Duration

	// Signs credit ledger rows
	LedgerSecret string

	ServiceName string

	// Log configuration
	LogLevel      string
	LogFormat     string
	LogFilename   string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

// DSN returns DATABASE_URL when set, otherwise a key/value postgres DSN
// built from the DB_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// WebhookURL is the address Stripe must be configured to deliver events to.
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/stripe/webhook"
}

func (c *Config) RedisFullAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisAddr, c.RedisPort)
}

// RedisEnabled reports whether a Redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		// Ignore error if .env file is not found
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        getEnv("DB_NAME", "vindb"),
		DBPort:        getEnv("DB_PORT", "5432"),
		RedisAddr:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		HTTPAddr:     getEnv("HTTP_ADDR", ":8000"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8000"),
		AllowOrigins: getEnvAsList("ALLOW_ORIGINS", []string{"*"}),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		BotURL:        getEnv("BOT_URL", "https://t.me/carfact_bot"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceSingle:   os.Getenv("STRIPE_PRICE_ID_SINGLE"),
		StripePriceBundle:   os.Getenv("STRIPE_PRICE_ID_BUNDLE"),

		DecoderURL:     getEnv("DECODER_URL", "https://vpic.nhtsa.dot.gov/api/vehicles"),
		DecoderMode:    getEnv("DECODER_MODE", "vpic"),
		DecoderTimeout: getEnvAsDuration("DECODER_TIMEOUT", 10*time.Second),

		LedgerSecret: getEnv("LEDGER_SECRET", "default-secret"),

		ServiceName: getEnv("SERVICE_NAME", "vin-bot"),

		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		LogFilename:   getEnv("LOG_FILENAME", "logs/app.log"),
		LogMaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvAsInt("LOG_MAX_AGE", 28),
		LogCompress:   getEnvAsBool("LOG_COMPRESS", true),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	var out []string
	for _, p := range strings.Split(valueStr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
