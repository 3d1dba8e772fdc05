package config

import (
	"os"
	"strings"
	"time"

	"github.com/mmdatafocus/marketplace_backend/utils"
)

const (
	DefaultThresholdScanCron = "0 * * * *"
	DefaultScanMaxWait       = 30 * time.Second
	DefaultScanTimeout       = 30 * time.Second
)

// ThresholdScanConfig controls the hourly seller threshold crons.
//
// Set via env:
// - THRESHOLD_SCAN_ENABLED (default true)
// - THRESHOLD_SCAN_CRON (default "0 * * * *", evaluated in UTC)
// - THRESHOLD_SCAN_MAX_WAIT_SECONDS / THRESHOLD_SCAN_TIMEOUT_SECONDS (default 30)
type ThresholdScanConfig struct {
	Enabled bool
	Cron    string
	MaxWait time.Duration
	Timeout time.Duration
}

func GetThresholdScanConfig() ThresholdScanConfig {
	spec := strings.TrimSpace(os.Getenv("THRESHOLD_SCAN_CRON"))
	if spec == "" {
		spec = DefaultThresholdScanCron
	}
	return ThresholdScanConfig{
		Enabled: utils.BoolFromEnv("THRESHOLD_SCAN_ENABLED", true),
		Cron:    spec,
		MaxWait: utils.SecondsFromEnv("THRESHOLD_SCAN_MAX_WAIT_SECONDS", DefaultScanMaxWait),
		Timeout: utils.SecondsFromEnv("THRESHOLD_SCAN_TIMEOUT_SECONDS", DefaultScanTimeout),
	}
}

// SkipMigrations is set by deployments that run migrations out of band.
func SkipMigrations() bool {
	return utils.BoolFromEnv("SKIP_MIGRATIONS", false)
}
