package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eddiefleurent/stamford_straddler/internal/broker"
	"github.com/eddiefleurent/stamford_straddler/internal/calendar"
	"github.com/eddiefleurent/stamford_straddler/internal/config"
	"github.com/eddiefleurent/stamford_straddler/internal/dashboard"
	"github.com/eddiefleurent/stamford_straddler/internal/marketdata"
	"github.com/eddiefleurent/stamford_straddler/internal/mock"
	"github.com/eddiefleurent/stamford_straddler/internal/strategy"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}
	if lvl, err := logrus.ParseLevel(cfg.Environment.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	if !cfg.IsPaperTrading() {
		logger.Fatal("live mode requires a live broker integration; only paper mode is wired")
	}
	logger.WithFields(logrus.Fields{
		"ticker": cfg.Strategy.Ticker,
		"mode":   cfg.Strategy.Mode,
	}).Info("starting straddle bot in paper mode")

	feed := mock.NewFeed(cfg.Strategy.Ticker)
	source := marketdata.NewBreakerSource(feed, "history")
	paper := broker.NewPaper(decimal.NewFromFloat(cfg.Strategy.InitialCash))
	cal := calendar.NewUS()

	hedgeHour, hedgeMinute := cfg.HedgeClock()
	driver := strategy.NewDriver(strategy.Config{
		Ticker:        cfg.Strategy.Ticker,
		Mode:          cfg.StrategyMode(),
		DeltaDeadband: cfg.Strategy.DeltaDeadband,
		HedgeHour:     hedgeHour,
		HedgeMinute:   hedgeMinute,
		WarmupUntil:   time.Now().AddDate(0, 0, cfg.Strategy.WarmupDays),
	}, paper, source, cal, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Dashboard.Enabled {
		server := dashboard.NewServer(dashboard.Config{Port: cfg.Dashboard.Port}, driver, paper, logger)
		g.Go(func() error { return server.Start(ctx) })
	}

	loop := newLoop(cfg, driver, feed, paper, logger)
	g.Go(func() error { return loop.Run(ctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.WithError(err).Fatal("bot error")
	}
	logger.Info("bot stopped")
	os.Exit(0)
}
