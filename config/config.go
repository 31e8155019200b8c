package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	AppEnv string

	DBDriver   string // postgres, mysql, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTKey      string
	JWTTTLHours int
	SaltRound   int

	MailProvider   string // console, smtp, sendgrid
	EmailSender    string
	SMTPHost       string
	SMTPPort       string
	SMTPPassword   string
	SendGridAPIKey string

	StripeAPIKey        string
	StripeAPIURL        string
	StripeWebhookSecret string
	StripeAllowUnsigned bool // honoured only when AppEnv is development

	RedisURL            string
	RoleCacheTTLMinutes int

	ProgressSweepSpec string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = FromEnv()

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.StripeWebhookSecret == "" {
		log.Println("Warning: STRIPE_WEBHOOK_SECRET is not set. Payment webhooks will be rejected.")
	}
	if AppConfig.ProgressSweepSpec == "" {
		log.Println("Progress sweep disabled (PROGRESS_SWEEP_SPEC=off).")
	}
	if AppConfig.DBDriver == "sqlite" && AppConfig.AppEnv == "production" {
		log.Println("Warning: Using sqlite in production. Set DB_DRIVER=postgres.")
	}
}

// FromEnv builds a Config from the current environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		Port:   getEnv("PORT", "3000"),
		AppEnv: getEnv("APP_ENV", "development"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "lms"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTKey:      getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),
		SaltRound:   getEnvInt("SALT_ROUND", 10),

		MailProvider:   strings.ToLower(getEnv("MAIL_PROVIDER", "console")),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@lms.local"),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		StripeAPIKey:        getEnv("STRIPE_API_KEY", ""),
		StripeAPIURL:        getEnv("STRIPE_API_URL", "https://api.stripe.com"),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeAllowUnsigned: getEnvBool("STRIPE_ALLOW_UNSIGNED", false),

		RedisURL:            getEnv("REDIS_URL", ""),
		RoleCacheTTLMinutes: getEnvInt("ROLE_CACHE_TTL_MINUTES", 10),

		ProgressSweepSpec: sweepSpec(getEnv("PROGRESS_SWEEP_SPEC", "*/15 * * * *")),
	}
}

// sweepSpec maps "off" to an empty spec, which disables the sweep.
func sweepSpec(spec string) string {
	if strings.EqualFold(strings.TrimSpace(spec), "off") {
		return ""
	}
	return spec
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvBool retrieves an environment variable as a boolean or returns the default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}

// WebhookAllowsUnsigned reports whether unsigned payment webhooks may be accepted.
func (c *Config) WebhookAllowsUnsigned() bool {
	return c.StripeWebhookSecret == "" && c.StripeAllowUnsigned && c.AppEnv == "development"
}
