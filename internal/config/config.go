package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool
	LogLevel         string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Daraja DarajaConfig
	AI     AIConfig
}

// DarajaConfig carries the mobile-money gateway credentials.
type DarajaConfig struct {
	Environment    string // sandbox or production
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	Timeout        time.Duration
}

// AIConfig carries the inference endpoint settings for feedback generation.
type AIConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "elimisha"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		LogLevel:         getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "elimisha"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		Daraja: DarajaConfig{
			Environment:    normalizeGatewayEnv(getenv("DARAJA_ENVIRONMENT", "sandbox")),
			ConsumerKey:    strings.TrimSpace(getenv("DARAJA_CONSUMER_KEY", "")),
			ConsumerSecret: strings.TrimSpace(getenv("DARAJA_CONSUMER_SECRET", "")),
			ShortCode:      strings.TrimSpace(getenv("DARAJA_SHORTCODE", "")),
			Passkey:        strings.TrimSpace(getenv("DARAJA_PASSKEY", "")),
			CallbackURL:    strings.TrimSpace(getenv("DARAJA_CALLBACK_URL", "")),
			Timeout:        time.Duration(getenvInt("DARAJA_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		AI: AIConfig{
			APIKey:   strings.TrimSpace(getenv("HUGGINGFACE_API_KEY", "")),
			Endpoint: getenv("HUGGINGFACE_ENDPOINT", "https://api-inference.huggingface.co/models/google/flan-t5-large"),
			Timeout:  time.Duration(getenvInt("HUGGINGFACE_TIMEOUT_SECONDS", 30)) * time.Second,
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func normalizeGatewayEnv(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "production" {
		return "production"
	}
	return "sandbox"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
