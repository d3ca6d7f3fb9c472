package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://app@db/vconnect")
	t.Setenv("SERVICE_DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("QR_SECRET", "")

	cfg := Load()

	assert.Equal(t, "postgres://app@db/vconnect", cfg.ServiceDatabaseURL)
	assert.Equal(t, "jwt", cfg.QRSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, "5 0 * * *", cfg.FineSweepCron)
	assert.Equal(t, 365*24*time.Hour, cfg.IDCardValidity)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_DATABASE_URL", "postgres://service@db/vconnect")
	t.Setenv("LIBRARY_FINE_PER_DAY", "2.5")
	t.Setenv("LIBRARY_LOAN_DAYS", "7")
	t.Setenv("JITSI_BASE_URL", "https://meet.example.edu/")
	t.Setenv("ALLOWED_ORIGINS", " https://portal.example.edu , ,http://localhost:5173")
	t.Setenv("MAX_UPLOAD_SIZE_MB", "2")

	cfg := Load()

	assert.Equal(t, "postgres://service@db/vconnect", cfg.ServiceDatabaseURL)
	assert.Equal(t, 2.5, cfg.FinePerDay)
	assert.Equal(t, 7, cfg.LoanDays)
	assert.Equal(t, "https://meet.example.edu", cfg.JitsiBaseURL)
	assert.Equal(t, []string{"https://portal.example.edu", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(2*1024*1024), cfg.MaxUploadBytes)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("LIBRARY_LOAN_DAYS", "two weeks")
	t.Setenv("LIBRARY_FINE_PER_DAY", "-1")

	cfg := Load()

	assert.Equal(t, 14, cfg.LoanDays)
	assert.Equal(t, 5.0, cfg.FinePerDay)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "login:42", CacheKey.UserSessionKey("42"))
	assert.Equal(t, "workload:report:all", CacheKey.WorkloadReportKey(""))
	assert.Equal(t, "workload:report:d1", CacheKey.WorkloadReportKey("d1"))
	assert.Equal(t, "group:g1:events", CacheKey.GroupEventsChannel("g1"))
	assert.Equal(t, "ratelimit:login:1.2.3.4", CacheKey.RateLimitKey("login", "1.2.3.4"))
}
