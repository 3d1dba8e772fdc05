// threshold-scan runs the seller threshold scan once, outside the server's cron.
// Useful after an outage or when THRESHOLD_SCAN_ENABLED=false on the API.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/threshold-scan -class all
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mmdatafocus/marketplace_backend/config"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/workflow"
)

func main() {
	classFlag := flag.String("class", "all", "seller class to scan: PRIVATE, GENERAL or all")
	useLock := flag.Bool("lock", true, "take the redis scan lock shared with the API instances")
	flag.Parse()

	classes, err := parseClasses(*classFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := config.GetLogger()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var locker workflow.Locker
	if *useLock {
		config.ConnectRedisWithRetry(ctx)
		if l := config.GetRedisLock(); l != nil {
			locker = l
		}
		defer config.CloseRedis()
	}

	var notifier workflow.Notifier = workflow.NopNotifier{}
	if strings.TrimSpace(os.Getenv("TODO_EVENTS_TOPIC")) != "" {
		notifier = workflow.PubSubNotifier{}
		defer config.ClosePubSub()
	}

	scanCfg := config.GetThresholdScanConfig()
	job := workflow.NewThresholdScanJob(models.NewGormStore(db), logger, notifier, models.TxOptions{
		MaxWait: scanCfg.MaxWait,
		Timeout: scanCfg.Timeout,
	})
	scheduler := workflow.NewThresholdScheduler(job, locker, logger, scanCfg.Cron)

	failed := false
	for _, class := range classes {
		result, err := scheduler.RunOnce(ctx, class)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s scan failed: %v\n", class, err)
			failed = true
			continue
		}
		fmt.Printf("%s: organizations=%d candidates=%d notified=%d reset=%d took=%s\n",
			class, result.Organizations, result.Candidates, len(result.Notified), len(result.ResetStatsIds), result.Took)
	}
	if failed {
		os.Exit(1)
	}
}

func parseClasses(raw string) ([]models.SellerClass, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "all") {
		return models.AllSellerClasses, nil
	}
	class, err := models.ParseSellerClass(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return nil, err
	}
	return []models.SellerClass{class}, nil
}
