package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestThresholdScanConfigDefaults(t *testing.T) {
	t.Setenv("THRESHOLD_SCAN_ENABLED", "")
	t.Setenv("THRESHOLD_SCAN_CRON", "")
	t.Setenv("THRESHOLD_SCAN_MAX_WAIT_SECONDS", "")
	t.Setenv("THRESHOLD_SCAN_TIMEOUT_SECONDS", "")

	cfg := GetThresholdScanConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "0 * * * *", cfg.Cron)
	assert.Equal(t, 30*time.Second, cfg.MaxWait)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestThresholdScanConfigFromEnv(t *testing.T) {
	t.Setenv("THRESHOLD_SCAN_ENABLED", "false")
	t.Setenv("THRESHOLD_SCAN_CRON", "*/15 * * * *")
	t.Setenv("THRESHOLD_SCAN_MAX_WAIT_SECONDS", "5")
	t.Setenv("THRESHOLD_SCAN_TIMEOUT_SECONDS", "not-a-number")

	cfg := GetThresholdScanConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "*/15 * * * *", cfg.Cron)
	assert.Equal(t, 5*time.Second, cfg.MaxWait)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestDatabaseDSN(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "marketplace")

	t.Setenv("DB_HOST", "10.0.0.5")
	t.Setenv("DB_PORT", "3306")
	assert.Equal(t, "app:pw@tcp(10.0.0.5:3306)/marketplace?parseTime=true&loc=UTC", databaseDSN())

	t.Setenv("DB_HOST", "/cloudsql/project:region:instance")
	assert.Equal(t, "app:pw@unix(/cloudsql/project:region:instance)/marketplace?parseTime=true&loc=UTC", databaseDSN())
}

func TestRetryBackoffIsCapped(t *testing.T) {
	assert.Equal(t, 2*time.Second, retryBackoff(1))
	assert.Equal(t, 16*time.Second, retryBackoff(4))
	assert.Equal(t, 30*time.Second, retryBackoff(5))
	assert.Equal(t, 30*time.Second, retryBackoff(12))
}

func TestLevelFromEnv(t *testing.T) {
	assert.Equal(t, logrus.ErrorLevel, levelFromEnv(""))
	assert.Equal(t, logrus.ErrorLevel, levelFromEnv("loud"))
	assert.Equal(t, logrus.InfoLevel, levelFromEnv(" info "))
}
