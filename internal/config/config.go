package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env string

	// Server
	Port           string
	PipelineAPIKey string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Ledger
	DefaultCurrency string

	// Rate and quote providers
	RatesBaseURL           string
	QuotesBaseURL          string
	ProviderTimeout        time.Duration
	RatesCacheTTL          time.Duration
	QuoteRequestsPerSecond float64

	// Schedule-fired notifications. Empty AMQPURL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env: getEnv("ENV", "development"),

		Port:           getEnv("PORT", "8080"),
		PipelineAPIKey: getEnv("PIPELINE_API_KEY", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "finledger"),
		DBPassword: getEnv("DB_PASSWORD", "finledger"),
		DBName:     getEnv("DB_NAME", "finledger"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "HUF")),

		RatesBaseURL:  getEnv("RATES_BASE_URL", "https://open.er-api.com/v6/latest"),
		QuotesBaseURL: getEnv("QUOTES_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "schedule-fired"),
	}

	config.ProviderTimeout = getDuration("PROVIDER_TIMEOUT", 10*time.Second)
	config.RatesCacheTTL = getDuration("RATES_CACHE_TTL", time.Hour)

	rps := getEnv("QUOTE_REQUESTS_PER_SECOND", "2")
	parsed, err := strconv.ParseFloat(rps, 64)
	if err != nil || parsed <= 0 {
		log.Printf("Warning: invalid QUOTE_REQUESTS_PER_SECOND value '%s', falling back to 2\n", rps)
		parsed = 2
	}
	config.QuoteRequestsPerSecond = parsed

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, defaultValue.String())
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
