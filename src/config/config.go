package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

type Config struct {
	APIEnv  string
	AppHost string
	APIHost string
	Port    string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	PaymentTimeout      time.Duration
	// AllowInsecurePaymentURLs lets local setups hand http or localhost
	// return URLs to the gateway.
	AllowInsecurePaymentURLs bool

	DuplicateWindow        time.Duration
	BundleEligibleCuisines []string
	PendingExpiry          time.Duration

	RedisURL              string
	MembershipDatabaseDSN string

	EmailTransport string
	EmailQueue     string
	EmailFrom      string
	EmailFromName  string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	QRCodeBucket   string

	AWSSecretsID string
	AWSRoleARN   string
	JWTSecret    string

	MaintenanceMode bool
}

func Load() *Config {
	return &Config{
		APIEnv:  getenv("API_ENV", "local"),
		AppHost: strings.TrimRight(os.Getenv("APP_HOST"), "/"),
		APIHost: strings.TrimRight(os.Getenv("API_HOST"), "/"),
		Port:    getenv("PORT", "8080"),

		StripeSecretKey:          os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:      os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:                 strings.ToLower(getenv("CURRENCY", "usd")),
		PaymentTimeout:           seconds("PAYMENT_TIMEOUT", 15),
		AllowInsecurePaymentURLs: flag("ALLOW_INSECURE_PAYMENT_URLS"),

		DuplicateWindow:        seconds("DUPLICATE_WINDOW_SECONDS", 60),
		BundleEligibleCuisines: list("BUNDLE_ELIGIBLE_CUISINES"),
		PendingExpiry:          time.Duration(integer("PENDING_EXPIRY_HOURS", 0)) * time.Hour,

		RedisURL:              os.Getenv("REDIS_HOST"),
		MembershipDatabaseDSN: os.Getenv("MEMBERSHIP_DATABASE_DSN"),

		EmailTransport: strings.ToLower(getenv("EMAIL_TRANSPORT", "smtp")),
		EmailQueue:     getenv("EMAIL_QUEUE", "BookingEmails"),
		EmailFrom:      os.Getenv("EMAIL_FROM"),
		EmailFromName:  getenv("EMAIL_FROM_NAME", "Gala Dinner"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       integer("SMTP_PORT", 587),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		QRCodeBucket:   os.Getenv("S3_ASSETS_BUCKET"),

		AWSSecretsID: os.Getenv("AWS_SECRETS_ID"),
		AWSRoleARN:   os.Getenv("AWS_IAM_ROLE_ARN"),
		JWTSecret:    os.Getenv("JWT_SECRET"),

		MaintenanceMode: flag("MAINTENANCE_MODE"),
	}
}

func (c *Config) IsLocal() bool {
	return c.APIEnv == "local"
}

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := getenv("DATABASE_PORT", "5432")
	DATABASE_SSLMODE := getenv("DATABASE_SSLMODE", "disable")
	DATABASE_TIMEZONE := getenv("DATABASE_TIMEZONE", "UTC")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func flag(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func integer(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func seconds(key string, fallback int) time.Duration {
	return time.Duration(integer(key, fallback)) * time.Second
}

func list(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
