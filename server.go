package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/marketplace_backend/config"
	"github.com/mmdatafocus/marketplace_backend/handlers"
	"github.com/mmdatafocus/marketplace_backend/middlewares"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/mmdatafocus/marketplace_backend/workflow"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	// In production only the CORS_ALLOWED_ORIGINS allowlist is accepted; elsewhere all origins are.
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		cfg.AllowOrigins = utils.SplitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS"))
		if cfg.AllowOrigins == nil {
			cfg.AllowOrigins = []string{}
		}
	} else {
		cfg.AllowAllOrigins = true
	}
	cfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", middlewares.CorrelationIdHeader)
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationIdHeader)
	cfg.AllowCredentials = true
	return cfg
}

func notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// pubSubEnabled reports whether todo notifications have somewhere to go.
func pubSubEnabled() bool {
	return strings.TrimSpace(os.Getenv("TODO_EVENTS_TOPIC")) != ""
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	if err := utils.CheckJwtSecret(); err != nil {
		logger.WithFields(logrus.Fields{"field": "auth"}).Fatal(err.Error())
	}

	// Cloud Run sends SIGTERM on revision shutdown.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	var ready atomic.Bool
	h := &handlers.Handler{Logger: logger, Notifier: workflow.NopNotifier{}}

	// Until DB/Redis are ready, app endpoints answer 503.
	r := gin.New()
	r.Use(middlewares.CorrelationId())
	r.Use(middlewares.ReadinessGate(ready.Load))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.Use(cors.New(corsConfig()))

	// RATE_LIMIT_ENABLED=true, RATE_LIMIT_WINDOW_SECONDS=60, RATE_LIMIT_MAX_REQUESTS=600
	rateLimited := utils.BoolFromEnv("RATE_LIMIT_ENABLED", false)
	var rateLimiter *middlewares.RateLimiter
	r.Use(func(c *gin.Context) {
		if rateLimiter == nil {
			c.Next()
			return
		}
		rateLimiter.Middleware()(c)
	})

	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.ErrorLogger(logger))
	r.Use(gin.Recovery())
	h.RegisterRoutes(r)
	r.NoRoute(notFoundHandler)

	// Listen immediately; the Cloud Run startup probe is TCP based.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry(sigCtx)

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !config.SkipMigrations() {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	if rdb := config.GetRedisDB(); rateLimited && rdb != nil {
		rateLimiter = middlewares.NewRateLimiter(
			rdb,
			int64(utils.IntFromEnv("RATE_LIMIT_MAX_REQUESTS", 600)),
			utils.SecondsFromEnv("RATE_LIMIT_WINDOW_SECONDS", time.Minute),
		)
	}

	store := models.NewGormStore(db)
	var notifier workflow.Notifier = workflow.NopNotifier{}
	if pubSubEnabled() {
		notifier = workflow.PubSubNotifier{}
	}

	scanCfg := config.GetThresholdScanConfig()
	job := workflow.NewThresholdScanJob(store, logger, notifier, models.TxOptions{
		MaxWait: scanCfg.MaxWait,
		Timeout: scanCfg.Timeout,
	})
	var locker workflow.Locker
	if l := config.GetRedisLock(); l != nil {
		locker = l
	}
	scheduler := workflow.NewThresholdScheduler(job, locker, logger, scanCfg.Cron)
	if scanCfg.Enabled {
		if err := scheduler.Start(); err != nil {
			logger.WithFields(logrus.Fields{"field": "scheduler"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "scheduler"}).Warn("THRESHOLD_SCAN_ENABLED=false; threshold scans run only on demand")
	}

	h.Store = store
	h.Notifier = notifier
	h.Scans = scheduler
	ready.Store(true)

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop scheduling before draining so no new scan starts.
	scanDone := scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
	select {
	case <-scanDone.Done():
	case <-shutdownCtx.Done():
		logger.WithFields(logrus.Fields{"field": "scheduler"}).Warn("threshold scan still running at shutdown")
	}

	_ = config.CloseRedis()
	_ = config.ClosePubSub()
}
