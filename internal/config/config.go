package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable through OTP_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreDynamo = "dynamo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	BackendAPIURL  string // empty means every backend call fails with a configuration error
	BackendTimeout time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPFromName string
	SMTPUsername string
	SMTPPassword string
	SMTPTimeout  time.Duration // bounds one whole send, dial included

	OTPTTL        time.Duration
	OTPHashSecret string
	OTPStore      string
	// OTPBindTokenEmail requires the request email to equal the bearer token's
	// email claim. Off by default: codes bind to the submitted email string only.
	OTPBindTokenEmail bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTableOTP string

	S3ArchiveBucket  string
	SNSAlertTopicARN string

	JWTPublicKeyPath string
	GoogleClientID   string   // enables Google ID-token sign-in when set
	AdminEmails      []string // Google identities granted the admin role

	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxyHeaders keys rate limits on X-Forwarded-For. Set it only behind a
	// proxy that overwrites the header.
	TrustProxyHeaders bool

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		BackendAPIURL:  strings.TrimRight(getEnv("BACKEND_API_URL", ""), "/"),
		BackendTimeout: time.Duration(getEnvInt("BACKEND_TIMEOUT_SECONDS", 15)) * time.Second,

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Voucher Management System"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPTimeout:  time.Duration(getEnvInt("SMTP_TIMEOUT_SECONDS", 10)) * time.Second,

		OTPTTL:            time.Duration(getEnvInt("OTP_TTL_MINUTES", 5)) * time.Minute,
		OTPHashSecret:     getEnv("OTP_HASH_SECRET", ""),
		OTPStore:          strings.ToLower(getEnv("OTP_STORE", StoreMemory)),
		OTPBindTokenEmail: getEnvBool("OTP_BIND_TOKEN_EMAIL", false),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTableOTP: getEnv("DYNAMO_TABLE_OTPS", "otp_records"),

		S3ArchiveBucket:  getEnv("S3_ARCHIVE_BUCKET", ""),
		SNSAlertTopicARN: getEnv("SNS_ALERT_TOPIC_ARN", ""),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", ""),
		GoogleClientID:   getEnv("GOOGLE_CLIENT_ID", ""),
		AdminEmails:      getEnvList("ADMIN_EMAILS"),

		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 10),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", "*"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string, fallback ...string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
