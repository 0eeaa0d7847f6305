package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultSessionTTL is the lifetime of a cached device session (six 30-day months).
	DefaultSessionTTL = 180 * 24 * time.Hour
	// DefaultRemoteSessionDays outlives DefaultSessionTTL so an expired cache
	// record can still sit next to a live remote session.
	DefaultRemoteSessionDays = 365
	// DefaultOTPTTL is how long a one-time code stays valid.
	DefaultOTPTTL = 5 * time.Minute
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion   string
	SNSTopicARN string
	Notifier    string // "smtp" | "sns"

	SessionCacheBackend string // "sqlite" | "redis" | "s3" | "memory"
	SessionCacheKey     string // hex-encoded 32-byte key; enables sealed blobs when set
	SQLitePath          string
	RedisURL            string
	S3BucketName        string
	S3Prefix            string

	KafkaBrokers []string
	KafkaTopic   string

	SessionTTL         time.Duration
	OTPTTL             time.Duration
	OTPDispatchTimeout time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	EndUsers       string
	Providers      string
	Credentials    string
	RemoteSessions string
	OTPChallenges  string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			EndUsers:       getEnv("DYNAMO_TABLE_END_USERS", "end_users"),
			Providers:      getEnv("DYNAMO_TABLE_PROVIDERS", "providers"),
			Credentials:    getEnv("DYNAMO_TABLE_CREDENTIALS", "credentials"),
			RemoteSessions: getEnv("DYNAMO_TABLE_REMOTE_SESSIONS", "remote_sessions"),
			OTPChallenges:  getEnv("DYNAMO_TABLE_OTP_CHALLENGES", "otp_challenges"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", DefaultRemoteSessionDays)) * 24 * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),
		Notifier:    getEnv("NOTIFIER", "smtp"),

		SessionCacheBackend: getEnv("SESSION_CACHE_BACKEND", "sqlite"),
		SessionCacheKey:     getEnv("SESSION_CACHE_KEY", ""),
		SQLitePath:          getEnv("SQLITE_PATH", "./session-cache.db"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		S3BucketName:        getEnv("S3_BUCKET_NAME", "session-cache"),
		S3Prefix:            getEnv("S3_PREFIX", "devices/"),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "auth-events"),

		SessionTTL:         getEnvDuration("SESSION_TTL", DefaultSessionTTL),
		OTPTTL:             getEnvDuration("OTP_TTL", DefaultOTPTTL),
		OTPDispatchTimeout: getEnvDuration("OTP_DISPATCH_TIMEOUT", 30*time.Second),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
