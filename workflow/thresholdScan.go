package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/marketplace_backend/config"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ReconciliationWindow is twelve 30-day months, not calendar months.
const ReconciliationWindow = 360 * 24 * time.Hour

// ScanPlan is the classification of one scan's candidate stats rows.
// A row may appear in both lists; notification is applied first.
type ScanPlan struct {
	Notify []models.SellerPurchaseStats
	Reset  []models.SellerPurchaseStats
}

// ClassifySellerStats decides which rows get a threshold notification and which
// have outlived the reconciliation window. Rows of organizations missing from
// thresholds are ignored.
func ClassifySellerStats(rows []models.SellerPurchaseStats, thresholds map[string]decimal.Decimal, now time.Time) ScanPlan {
	var plan ScanPlan
	for _, row := range rows {
		threshold, ok := thresholds[row.OrganizationId]
		if !ok {
			continue
		}
		if !row.IsNotified && row.TotalSales.GreaterThanOrEqual(threshold) {
			plan.Notify = append(plan.Notify, row)
		}
		if now.Sub(row.LastReconciledAt) >= ReconciliationWindow {
			plan.Reset = append(plan.Reset, row)
		}
	}
	return plan
}

type ScanResult struct {
	SellerClass   models.SellerClass `json:"seller_class"`
	StartedAt     time.Time          `json:"started_at"`
	Organizations int                `json:"organizations"`
	Candidates    int                `json:"candidates"`
	Notified      []*models.TodoList `json:"notified"`
	ResetStatsIds []int              `json:"reset_stats_ids"`
	Took          time.Duration      `json:"took"`
}

type ThresholdScanJob struct {
	Store     models.Store
	Logger    *logrus.Logger
	Notifier  Notifier
	TxOptions models.TxOptions
	Now       func() time.Time
}

func NewThresholdScanJob(store models.Store, logger *logrus.Logger, notifier Notifier, opts models.TxOptions) *ThresholdScanJob {
	return &ThresholdScanJob{
		Store:     store,
		Logger:    loggerOrDefault(logger),
		Notifier:  notifier,
		TxOptions: opts,
	}
}

func (j *ThresholdScanJob) now() time.Time {
	if j.Now != nil {
		return j.Now().UTC()
	}
	return timeNow()
}

// Run performs one scan for class inside a single transaction. Any error rolls
// back every write of the run; the next tick retries from scratch.
func (j *ThresholdScanJob) Run(ctx context.Context, class models.SellerClass) (*ScanResult, error) {
	if !class.IsValid() {
		return nil, fmt.Errorf("threshold scan: invalid seller class %q", class)
	}
	logger := loggerOrDefault(j.Logger)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	ctx, span := tracer.Start(ctx, "workflow.ThresholdScanJob.Run", trace.WithAttributes(
		attribute.String("seller.class", string(class)),
	))
	defer span.End()

	started := time.Now()
	now := j.now()
	var result *ScanResult
	err := j.Store.Transaction(ctx, j.TxOptions, func(tx models.Store) error {
		result = &ScanResult{SellerClass: class, StartedAt: now}
		return j.scan(ctx, tx, class, now, result)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(logger, "ThresholdScanJob", "Run", "scan transaction", class, err)
		return nil, err
	}
	result.Took = time.Since(started)

	notifyCreated(ctx, j.Notifier, logger, result.Notified)

	span.SetAttributes(
		attribute.Int("scan.notified", len(result.Notified)),
		attribute.Int("scan.reset", len(result.ResetStatsIds)),
	)
	logger.WithFields(logrus.Fields{
		"seller_class":  class,
		"organizations": result.Organizations,
		"candidates":    result.Candidates,
		"notified":      len(result.Notified),
		"reset":         len(result.ResetStatsIds),
		"took":          result.Took.String(),
	}).Info("threshold scan finished")
	return result, nil
}

func (j *ThresholdScanJob) scan(ctx context.Context, tx models.Store, class models.SellerClass, now time.Time, result *ScanResult) error {
	settings, err := tx.ListSettingsWithUpperThreshold(ctx, class)
	if err != nil {
		return fmt.Errorf("list threshold settings: %w", err)
	}
	thresholds := make(map[string]decimal.Decimal, len(settings))
	organizationIds := make([]string, 0, len(settings))
	for i := range settings {
		limit := settings[i].UpperThreshold(class)
		if !limit.Valid {
			continue
		}
		thresholds[settings[i].OrganizationId] = limit.Decimal
		organizationIds = append(organizationIds, settings[i].OrganizationId)
	}
	result.Organizations = len(organizationIds)
	if len(organizationIds) == 0 {
		return nil
	}

	rows, err := tx.ListSellerStatsForScan(ctx, class, organizationIds)
	if err != nil {
		return fmt.Errorf("list seller stats: %w", err)
	}
	result.Candidates = len(rows)

	plan := ClassifySellerStats(rows, thresholds, now)
	for _, row := range plan.Notify {
		todo, err := RegisterEvent(ctx, tx, class.AboveThresholdEvent(), EventPayload{
			OrganizationId: row.OrganizationId,
			SellerId:       row.SellerId,
			TotalSales:     row.TotalSales,
			TotalQuantity:  row.TotalQuantity,
		})
		if err != nil {
			return fmt.Errorf("register threshold event for seller %s: %w", row.SellerId, err)
		}
		if err := tx.MarkSellerStatsNotified(ctx, row.ID); err != nil {
			return fmt.Errorf("mark seller %s notified: %w", row.SellerId, err)
		}
		result.Notified = append(result.Notified, todo)
	}
	for _, row := range plan.Reset {
		if err := tx.ResetSellerStats(ctx, row.ID, now); err != nil {
			return fmt.Errorf("reset seller %s stats: %w", row.SellerId, err)
		}
		result.ResetStatsIds = append(result.ResetStatsIds, row.ID)
	}
	return nil
}
