package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Locker is satisfied by *redislock.Client.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// ThresholdScheduler fires one threshold scan per seller class on a cron
// schedule evaluated in UTC. A class never has two runs in flight.
type ThresholdScheduler struct {
	cron    *cron.Cron
	job     *ThresholdScanJob
	locker  Locker
	logger  *logrus.Logger
	spec    string
	lockTTL time.Duration
	running map[models.SellerClass]*atomic.Bool
}

func NewThresholdScheduler(job *ThresholdScanJob, locker Locker, logger *logrus.Logger, spec string) *ThresholdScheduler {
	running := make(map[models.SellerClass]*atomic.Bool, len(models.AllSellerClasses))
	for _, class := range models.AllSellerClasses {
		running[class] = &atomic.Bool{}
	}
	lockTTL := job.TxOptions.MaxWait + job.TxOptions.Timeout + time.Minute
	return &ThresholdScheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		job:     job,
		locker:  locker,
		logger:  loggerOrDefault(logger),
		spec:    spec,
		lockTTL: lockTTL,
		running: running,
	}
}

func (s *ThresholdScheduler) Start() error {
	for _, class := range models.AllSellerClasses {
		c := class
		if _, err := s.cron.AddFunc(s.spec, func() {
			_, _ = s.RunOnce(context.Background(), c)
		}); err != nil {
			return fmt.Errorf("schedule threshold scan %s: %w", c, err)
		}
	}
	s.cron.Start()
	s.logger.WithFields(logrus.Fields{"spec": s.spec}).Info("threshold scheduler started")
	return nil
}

// Stop prevents new runs; the returned context is done once running jobs returned.
func (s *ThresholdScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func scanLockKey(class models.SellerClass) string {
	return fmt.Sprintf("lock:threshold-scan:%s", class)
}

// RunOnce runs a scan for class unless one is already running here or, when a
// locker is configured, on another instance. Redis trouble other than a held
// lock is logged and the scan proceeds.
func (s *ThresholdScheduler) RunOnce(ctx context.Context, class models.SellerClass) (*ScanResult, error) {
	flag, ok := s.running[class]
	if !ok {
		return nil, fmt.Errorf("threshold scan: invalid seller class %q", class)
	}
	if !flag.CompareAndSwap(false, true) {
		s.logger.WithFields(logrus.Fields{"seller_class": class}).Warn("threshold scan skipped: previous run still active")
		return nil, utils.ErrScanInProgress
	}
	defer flag.Store(false)

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, scanLockKey(class), s.lockTTL, nil)
		switch {
		case errors.Is(err, redislock.ErrNotObtained):
			s.logger.WithFields(logrus.Fields{"seller_class": class}).Warn("threshold scan skipped: lock held by another instance")
			return nil, utils.ErrScanInProgress
		case err != nil:
			s.logger.WithFields(logrus.Fields{"seller_class": class}).WithError(err).Warn("threshold scan lock unavailable, proceeding")
		case lock != nil:
			defer func() {
				if err := lock.Release(context.Background()); err != nil {
					s.logger.WithFields(logrus.Fields{"seller_class": class}).WithError(err).Warn("failed to release threshold scan lock")
				}
			}()
		}
	}

	return s.job.Run(ctx, class)
}
