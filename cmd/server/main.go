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

	"github.com/careline/intake-platform/internal/api"
	"github.com/careline/intake-platform/internal/comms"
	"github.com/careline/intake-platform/internal/config"
	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/lifecycle"
	"github.com/careline/intake-platform/internal/metrics"
	"github.com/careline/intake-platform/internal/persona"
	"github.com/careline/intake-platform/internal/pkg/logger"
	"github.com/careline/intake-platform/internal/portal"
	"github.com/careline/intake-platform/internal/rules"
)

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

	// Customer repository: PostgreSQL when configured, in-memory otherwise.
	var repo customer.Repository
	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("database open failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		db.SetMaxOpenConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		repo = customer.NewPostgresRepo(db)
		logger.Info("customer repository: postgres")
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
			logger.Warn("redis unreachable, falling back to in-process state",
				"addr", cfg.Redis.Addr, "error", err.Error())
			redisClient = nil
		}
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

	var tracker metrics.Tracker
	if redisClient != nil {
		tracker = metrics.NewRedisTracker(redisClient)
		logger.Info("campaign metrics: redis")
	} else {
		tracker = metrics.NewMemoryTracker()
		logger.Info("campaign metrics: in-memory")
	}

	portalSvc := portal.NewService(lc, classifier, engine)

	handlers := api.NewHandlers(lc, classifier, dispatcher, engine, portalSvc, tracker)
	server := api.NewServer(cfg.Server, handlers)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err.Error())
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}
