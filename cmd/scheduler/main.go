// The scheduler runs periodic automation sweeps. Multiple instances may
// run side by side; a distributed lock ensures only one performs each
// sweep.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/careline/intake-platform/internal/comms"
	"github.com/careline/intake-platform/internal/config"
	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/lifecycle"
	"github.com/careline/intake-platform/internal/persona"
	"github.com/careline/intake-platform/internal/pkg/distlock"
	"github.com/careline/intake-platform/internal/pkg/logger"
	"github.com/careline/intake-platform/internal/rules"
)

const sweepLockKey = "automation:sweep"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("config load failed", "error", err.Error())
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	var repo customer.Repository
	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("database open failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		repo = customer.NewPostgresRepo(db)
	} else {
		repo = customer.NewMemoryRepo()
		logger.Warn("customer repository: in-memory (no DATABASE_URL)")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable", "addr", cfg.Redis.Addr, "error", err.Error())
			redisClient = nil
		}
	}
	if redisClient == nil && db == nil {
		logger.Warn("no redis and no database; sweeps run unlocked (single instance only)")
	}

	lc := lifecycle.NewService(repo)
	classifier := persona.NewClassifier(repo)

	templates := comms.NewTemplateStore()
	templates.Seed(cfg.SeedTemplates())

	var logs comms.LogStore
	if db != nil {
		logs = comms.NewPostgresLogStore(db)
	} else {
		logs = comms.NewMemoryLogStore()
	}

	dispatcher := comms.NewDispatcher(repo, templates, logs, []comms.Sender{
		comms.NewSESEmailSender(cfg.SES.AccessKey, cfg.SES.SecretKey,
			cfg.SES.Region, cfg.SES.FromEmail, cfg.SES.FromName),
		comms.NewHTTPSMSSender(cfg.SMS.Endpoint, cfg.SMS.APIKey, nil),
		comms.NewLogSender(domain.ChannelPush),
	})

	ruleStore := rules.NewStore()
	seeded, err := cfg.SeedRules()
	if err != nil {
		logger.Error("rule catalog invalid", "error", err.Error())
		os.Exit(1)
	}
	if err := ruleStore.Seed(seeded); err != nil {
		logger.Error("rule seed failed", "error", err.Error())
		os.Exit(1)
	}

	engine := rules.NewEngine(ruleStore, repo, lc, classifier, dispatcher, lc,
		rules.WithActionTimeout(time.Duration(cfg.Automation.ActionTimeoutSeconds)*time.Second))

	interval := time.Duration(cfg.Automation.SweepIntervalSeconds) * time.Second
	lockTTL := time.Duration(cfg.Automation.LockTTLSeconds) * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("scheduler started", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First sweep on startup rather than waiting a full interval.
	runSweep(ctx, engine, redisClient, db, lockTTL)
	for {
		select {
		case <-ticker.C:
			runSweep(ctx, engine, redisClient, db, lockTTL)
		case sig := <-stop:
			logger.Info("scheduler stopping", "signal", sig.String())
			return
		}
	}
}

// runSweep executes time and score based rules under the sweep lock.
func runSweep(ctx context.Context, engine *rules.Engine, redisClient *redis.Client, db *sql.DB, lockTTL time.Duration) {
	if redisClient != nil || db != nil {
		lock := distlock.NewLock(redisClient, db, sweepLockKey, lockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Error("sweep lock error", "error", err.Error())
			return
		}
		if !acquired {
			logger.Debug("sweep lock held elsewhere, skipping")
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				logger.Warn("sweep lock release failed", "error", err.Error())
			}
		}()
	}

	start := time.Now()
	for _, trigger := range []domain.TriggerType{domain.TriggerTimeBased, domain.TriggerScoreBased} {
		executed, err := engine.ExecuteAutomations(ctx, trigger)
		if err != nil {
			logger.Error("sweep failed", "trigger", string(trigger), "error", err.Error())
			continue
		}
		logger.Info("sweep complete",
			"trigger", string(trigger), "rules_executed", executed)
	}
	logger.Debug("sweep finished", "elapsed", time.Since(start).String())
}
