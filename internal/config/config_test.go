package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_TTL", "")
	t.Setenv("OTP_TTL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("JWT_EXPIRY_DAYS", "")

	cfg := Load()

	assert.Equal(t, 180*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 365*24*time.Hour, cfg.JWTExpiry)
	assert.Greater(t, cfg.JWTExpiry, cfg.SessionTTL, "remote sessions must outlive the device cache")
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "end_users", cfg.DynamoTables.EndUsers)
	assert.Equal(t, "providers", cfg.DynamoTables.Providers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("JWT_EXPIRY_DAYS", "2")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 48*time.Hour, cfg.JWTExpiry)
}

func TestGetEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("SOME_DURATION", time.Minute))

	t.Setenv("SOME_DURATION", "-5s")
	assert.Equal(t, time.Minute, getEnvDuration("SOME_DURATION", time.Minute))
}
