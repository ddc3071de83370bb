package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/stamford_straddler/internal/broker"
	"github.com/eddiefleurent/stamford_straddler/internal/config"
	"github.com/eddiefleurent/stamford_straddler/internal/mock"
	"github.com/eddiefleurent/stamford_straddler/internal/models"
	"github.com/eddiefleurent/stamford_straddler/internal/strategy"
)

// loop delivers the two event kinds to the driver: intraday snapshot ticks
// at the configured resolution, and one daily close event a fixed offset
// before market close. Events are delivered strictly in order from a single
// goroutine.
type loop struct {
	cfg    *config.Config
	driver *strategy.Driver
	feed   *mock.Feed
	paper  *broker.Paper
	log    *logrus.Logger

	lastCloseEvent int // DateKey of the last day the close event fired
}

func newLoop(cfg *config.Config, driver *strategy.Driver, feed *mock.Feed, paper *broker.Paper, log *logrus.Logger) *loop {
	return &loop{cfg: cfg, driver: driver, feed: feed, paper: paper, log: log}
}

// Run ticks until the context is canceled.
func (l *loop) Run(ctx context.Context) error {
	interval := l.cfg.DataResolution()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.log.WithField("interval", interval).Info("event loop started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			l.step(ctx, now)
		}
	}
}

func (l *loop) step(ctx context.Context, now time.Time) {
	loc, err := l.cfg.Location()
	if err != nil {
		l.log.WithError(err).Error("timezone unavailable")
		return
	}
	now = now.In(loc)

	if !l.cfg.IsWithinTradingHours(now) {
		return
	}

	l.paper.ExpireOptions(now)

	snap := l.feed.Snapshot(now)
	l.paper.MarkSnapshot(snap)
	l.driver.OnTick(ctx, now, snap)

	l.maybeFireCloseEvent(ctx, now, snap)
}

// maybeFireCloseEvent fires the before-close daily event once per day when
// the clock passes (market close - offset).
func (l *loop) maybeFireCloseEvent(ctx context.Context, now time.Time, snap *models.ChainSnapshot) {
	closeAt := l.cfg.MarketCloseOn(now).Add(-time.Duration(l.cfg.Strategy.CloseOffsetMinutes) * time.Minute)
	if now.Before(closeAt) {
		return
	}
	today := models.DateKey(now)
	if l.lastCloseEvent == today {
		return
	}
	l.lastCloseEvent = today
	l.driver.OnDailyClose(ctx, now, snap)
}
