package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// DefaultATRPeriod is the standard Wilder smoothing period.
	DefaultATRPeriod = 14
	// dailyATRFraction approximates a 5 minute range from a daily range.
	dailyATRFraction = 0.033
)

// FallbackPolicy describes what to do when candle history is too short
// for an intraday ATR.
type FallbackPolicy int

const (
	// FallbackNone reports the ATR as unavailable.
	FallbackNone FallbackPolicy = iota
	// FallbackDailyFraction substitutes a fixed fraction of the daily ATR.
	FallbackDailyFraction
)

// String stringifies the provided fallback policy.
func (p FallbackPolicy) String() string {
	switch p {
	case FallbackNone:
		return "none"
	case FallbackDailyFraction:
		return "daily-fraction"
	default:
		return "unknown"
	}
}

// ATR represents a unit average true range entry for a market.
type ATR struct {
	Value float64
	Date  time.Time
}

// trueRange computes the true range of a candle given the previous close.
func trueRange(candle *shared.Candlestick, previousClose float64) float64 {
	tr := candle.High - candle.Low
	tr = math.Max(tr, math.Abs(candle.High-previousClose))
	tr = math.Max(tr, math.Abs(candle.Low-previousClose))

	return tr
}

// AverageTrueRange computes the Wilder smoothed average true range over
// the provided candle history. It reports false when the history is too
// short for the provided period.
func AverageTrueRange(candles []shared.Candlestick, period int) (float64, bool) {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	if len(candles) < period+1 {
		return 0, false
	}

	var sum float64
	for idx := 1; idx <= period; idx++ {
		sum += trueRange(&candles[idx], candles[idx-1].Close)
	}

	atr := sum / float64(period)
	for idx := period + 1; idx < len(candles); idx++ {
		tr := trueRange(&candles[idx], candles[idx-1].Close)
		atr = (atr*float64(period-1) + tr) / float64(period)
	}

	return atr, true
}

// ATRGenerator represents the Average True Range indicator.
type ATRGenerator struct {
	SmoothedRange  atomic.Float64
	PreviousClose  atomic.Float64
	Count          atomic.Int64
	Current        atomic.Pointer[ATR]
	Market         string
	Timeframe      shared.Timeframe
	Period         int
	LastUpdateTime atomic.Pointer[time.Time]
}

// NewATRGenerator initializes an ATR indicator for the provided market and timeframe.
func NewATRGenerator(market string, timeframe shared.Timeframe, period int) *ATRGenerator {
	if period <= 0 {
		period = DefaultATRPeriod
	}

	return &ATRGenerator{
		Market:    market,
		Timeframe: timeframe,
		Period:    period,
	}
}

// Update cummulatively updates the ATR indicator with the provided candlestick data.
// The returned entry carries a zero value until the warmup period completes.
func (a *ATRGenerator) Update(candle *shared.Candlestick) (*ATR, error) {
	if candle.Timeframe != a.Timeframe {
		return nil, fmt.Errorf("expected candles with timeframe %s, got %s",
			a.Timeframe.String(), candle.Timeframe.String())
	}

	atr := &ATR{
		Date: candle.Date,
	}

	count := a.Count.Add(1)
	if count == 1 {
		// The first candle only seeds the previous close.
		a.PreviousClose.Store(candle.Close)
		a.LastUpdateTime.Store(&candle.Date)
		return atr, nil
	}

	tr := trueRange(candle, a.PreviousClose.Load())
	a.PreviousClose.Store(candle.Close)

	period := int64(a.Period)
	switch {
	case count <= period:
		a.SmoothedRange.Add(tr)
	case count == period+1:
		a.SmoothedRange.Add(tr)
		atr.Value = a.SmoothedRange.Load() / float64(period)
		a.SmoothedRange.Store(atr.Value)
	default:
		val := (a.SmoothedRange.Load()*float64(period-1) + tr) / float64(period)
		a.SmoothedRange.Store(val)
		atr.Value = val
	}

	if atr.Value > 0 {
		a.Current.Store(atr)
	}
	a.LastUpdateTime.Store(&candle.Date)

	return atr, nil
}

// Reset resets the ATR indicator after a trading session.
func (a *ATRGenerator) Reset() {
	a.SmoothedRange.Store(0)
	a.PreviousClose.Store(0)
	a.Count.Store(0)
}

// ResolverConfig is the configuration for the ATR resolver.
type ResolverConfig struct {
	// Period is the smoothing period. Defaults when unset.
	Period int
	// Policy is the fallback policy when intraday history is too short.
	Policy FallbackPolicy
	// Logger is the resolver logger.
	Logger *zerolog.Logger
}

// Resolver produces a 5 minute ATR, substituting a daily fraction when
// the intraday history cannot support one.
type Resolver struct {
	cfg *ResolverConfig
}

// NewResolver initializes an ATR resolver.
func NewResolver(cfg *ResolverConfig) *Resolver {
	if cfg.Period <= 0 {
		cfg.Period = DefaultATRPeriod
	}

	return &Resolver{
		cfg: cfg,
	}
}

// Resolve computes the intraday ATR from the provided 5 minute candles,
// falling back on the daily candles per the configured policy.
func (r *Resolver) Resolve(fiveMinute, daily []shared.Candlestick) (float64, error) {
	atr, ok := AverageTrueRange(fiveMinute, r.cfg.Period)
	if ok {
		return atr, nil
	}

	if r.cfg.Policy == FallbackNone {
		return 0, fmt.Errorf("insufficient intraday candle data for a %d period atr, got %d candles",
			r.cfg.Period, len(fiveMinute))
	}

	dailyATR, ok := AverageTrueRange(daily, r.cfg.Period)
	if !ok {
		return 0, fmt.Errorf("insufficient daily candle data for the %s fallback, got %d candles",
			r.cfg.Policy, len(daily))
	}

	if r.cfg.Logger != nil {
		r.cfg.Logger.Warn().Msgf("intraday atr unavailable, substituting %.1f%% of the daily atr",
			dailyATRFraction*100)
	}

	return dailyATR * dailyATRFraction, nil
}
