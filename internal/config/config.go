// Package config provides configuration management for the strategy runner.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/eddiefleurent/stamford_straddler/internal/strategy"
)

const (
	// defaultDeltaDeadband is used when strategy.delta_deadband is unset.
	defaultDeltaDeadband = 0.05
	// defaultHedgeTime is the time-of-day gate for the hedge pass.
	defaultHedgeTime = "11:00"
	// defaultCloseOffsetMinutes fires the daily close event this many
	// minutes before market close.
	defaultCloseOffsetMinutes = 10
	// defaultWarmupDays is the pass-through window before the pricer's
	// greeks are considered valid.
	defaultWarmupDays = 5
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Strategy    StrategyConfig    `yaml:"strategy"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	Mode     string `yaml:"mode"`      // paper | live
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// StrategyConfig defines the strategy parameters.
type StrategyConfig struct {
	Ticker             string  `yaml:"ticker"`
	Mode               string  `yaml:"mode"` // long_straddle | short_straddle | vol_compare
	InitialCash        float64 `yaml:"initial_cash"`
	DeltaDeadband      float64 `yaml:"delta_deadband"`
	HedgeTime          string  `yaml:"hedge_time"` // "HH:MM"
	CloseOffsetMinutes int     `yaml:"close_offset_minutes"`
	WarmupDays         int     `yaml:"warmup_days"`
}

// ScheduleConfig defines event timing and market hours.
type ScheduleConfig struct {
	Timezone       string `yaml:"timezone"`        // e.g., "America/New_York"
	DataResolution string `yaml:"data_resolution"` // tick interval, e.g. "1m"
	TradingStart   string `yaml:"trading_start"`   // "HH:MM"
	TradingEnd     string `yaml:"trading_end"`     // "HH:MM", the market close
}

// DashboardConfig defines the status HTTP server settings.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
	if c.Strategy.DeltaDeadband == 0 {
		c.Strategy.DeltaDeadband = defaultDeltaDeadband
	}
	if c.Strategy.HedgeTime == "" {
		c.Strategy.HedgeTime = defaultHedgeTime
	}
	if c.Strategy.CloseOffsetMinutes == 0 {
		c.Strategy.CloseOffsetMinutes = defaultCloseOffsetMinutes
	}
	if c.Strategy.WarmupDays == 0 {
		c.Strategy.WarmupDays = defaultWarmupDays
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/New_York"
	}
	if c.Schedule.DataResolution == "" {
		c.Schedule.DataResolution = "1m"
	}
	if c.Schedule.TradingStart == "" {
		c.Schedule.TradingStart = "09:30"
	}
	if c.Schedule.TradingEnd == "" {
		c.Schedule.TradingEnd = "16:00"
	}
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.Environment.Mode != "paper" && c.Environment.Mode != "live" {
		return fmt.Errorf("environment.mode must be 'paper' or 'live'")
	}
	if c.Strategy.Ticker == "" {
		return fmt.Errorf("strategy.ticker is required")
	}
	if !strategy.Mode(c.Strategy.Mode).Valid() {
		return fmt.Errorf("strategy.mode must be one of long_straddle, short_straddle, vol_compare")
	}
	if c.Strategy.InitialCash <= 0 {
		return fmt.Errorf("strategy.initial_cash must be > 0")
	}
	if c.Strategy.DeltaDeadband <= 0 || c.Strategy.DeltaDeadband >= 1 {
		return fmt.Errorf("strategy.delta_deadband must be in (0,1)")
	}
	if c.Strategy.CloseOffsetMinutes <= 0 {
		return fmt.Errorf("strategy.close_offset_minutes must be > 0")
	}
	if c.Strategy.WarmupDays < 0 {
		return fmt.Errorf("strategy.warmup_days must be >= 0")
	}
	if _, _, err := parseClock(c.Strategy.HedgeTime); err != nil {
		return fmt.Errorf("strategy.hedge_time invalid: %w", err)
	}
	if _, err := time.ParseDuration(c.Schedule.DataResolution); err != nil {
		return fmt.Errorf("schedule.data_resolution invalid: %w", err)
	}

	loc, err := c.Location()
	if err != nil {
		return fmt.Errorf("schedule.timezone invalid: %w", err)
	}
	s, err1 := time.ParseInLocation("15:04", c.Schedule.TradingStart, loc)
	e, err2 := time.ParseInLocation("15:04", c.Schedule.TradingEnd, loc)
	if err1 != nil || err2 != nil || !s.Before(e) {
		return fmt.Errorf("schedule trading window invalid (start/end parse/order)")
	}

	if c.Dashboard.Enabled && (c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535) {
		return fmt.Errorf("dashboard.port must be a valid TCP port")
	}

	return nil
}

// IsPaperTrading returns true if configured for paper trading.
func (c *Config) IsPaperTrading() bool {
	return c.Environment.Mode == "paper"
}

// StrategyMode returns the parsed strategy mode.
func (c *Config) StrategyMode() strategy.Mode {
	return strategy.Mode(c.Strategy.Mode)
}

// HedgeClock returns the hedge time-of-day gate as hour and minute.
func (c *Config) HedgeClock() (hour, minute int) {
	hour, minute, _ = parseClock(c.Strategy.HedgeTime)
	return hour, minute
}

// DataResolution returns the tick interval.
func (c *Config) DataResolution() time.Duration {
	d, err := time.ParseDuration(c.Schedule.DataResolution)
	if err != nil {
		return time.Minute
	}
	return d
}

// Location returns the configured exchange timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		// Fallback for minimal containers
		return time.FixedZone("ET", -5*60*60), nil
	}
	return loc, nil
}

// IsWithinTradingHours checks if the given time falls within configured
// trading hours on a weekday.
func (c *Config) IsWithinTradingHours(now time.Time) bool {
	loc, err := c.Location()
	if err != nil {
		return false
	}
	today := now.In(loc)

	if today.Weekday() == time.Saturday || today.Weekday() == time.Sunday {
		return false
	}

	sh, sm := clockOrDefault(c.Schedule.TradingStart, 9, 30)
	eh, em := clockOrDefault(c.Schedule.TradingEnd, 16, 0)
	start := time.Date(today.Year(), today.Month(), today.Day(), sh, sm, 0, 0, loc)
	end := time.Date(today.Year(), today.Month(), today.Day(), eh, em, 0, 0, loc)

	// Inclusive start, exclusive end
	return !today.Before(start) && today.Before(end)
}

// MarketCloseOn returns the market close instant for the given day.
func (c *Config) MarketCloseOn(day time.Time) time.Time {
	loc, _ := c.Location()
	d := day.In(loc)
	h, m := clockOrDefault(c.Schedule.TradingEnd, 16, 0)
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc)
}

func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// clockOrDefault falls back to safe defaults when misconfigured.
func clockOrDefault(s string, defHour, defMinute int) (hour, minute int) {
	hour, minute, err := parseClock(s)
	if err != nil {
		return defHour, defMinute
	}
	return hour, minute
}
