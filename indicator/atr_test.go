package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/peterldowns/testy/assert"
)

// flatCandles builds a candle series with a constant range and no gaps.
func flatCandles(n int, rng float64, timeframe shared.Timeframe) []shared.Candlestick {
	candles := make([]shared.Candlestick, n)
	for idx := range candles {
		candles[idx] = shared.Candlestick{
			Open:      100,
			Low:       100,
			High:      100 + rng,
			Close:     100,
			Volume:    1000,
			Date:      time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC).Add(time.Duration(idx) * 5 * time.Minute),
			Timeframe: timeframe,
		}
	}

	return candles
}

func TestAverageTrueRange(t *testing.T) {
	// Ensure short histories report the atr as unavailable.
	_, ok := AverageTrueRange(flatCandles(10, 0.5, shared.FiveMinute), 14)
	assert.False(t, ok)

	// A constant range series smooths to exactly that range.
	atr, ok := AverageTrueRange(flatCandles(30, 0.5, shared.FiveMinute), 14)
	assert.True(t, ok)
	assert.Equal(t, atr, 0.5)

	// Gapping between candles widens the true range beyond high minus low.
	candles := flatCandles(16, 0.5, shared.FiveMinute)
	for idx := range candles {
		shift := float64(idx) * 2
		candles[idx].Open += shift
		candles[idx].Low += shift
		candles[idx].High += shift
		candles[idx].Close += shift
	}

	atr, ok = AverageTrueRange(candles, 14)
	assert.True(t, ok)
	assert.GreaterThan(t, atr, 0.5)
}

func TestATRGenerator(t *testing.T) {
	market := "^GSPC"
	timeframe := shared.FiveMinute
	gen := NewATRGenerator(market, timeframe, 3)

	// Ensure the generator ignores update candles that are not of the expected timeframe.
	ignoredCandle := &shared.Candlestick{
		Open:   float64(5),
		Close:  float64(8),
		High:   float64(9),
		Low:    float64(3),
		Volume: float64(2),

		Market:    market,
		Timeframe: shared.OneHour,
	}

	_, err := gen.Update(ignoredCandle)
	assert.Error(t, err)

	// Ensure the warmup period produces zero values.
	candles := flatCandles(6, 0.5, timeframe)
	for idx := range candles[:3] {
		atr, err := gen.Update(&candles[idx])
		assert.NoError(t, err)
		assert.Equal(t, atr.Value, 0.0)
	}

	// Ensure the atr is available once the period completes.
	atr, err := gen.Update(&candles[3])
	assert.NoError(t, err)
	assert.Equal(t, atr.Value, 0.5)
	assert.NotNil(t, gen.Current.Load())

	// Ensure subsequent updates keep smoothing.
	atr, err = gen.Update(&candles[4])
	assert.NoError(t, err)
	assert.Equal(t, atr.Value, 0.5)

	// Ensure resetting clears the generator state.
	gen.Reset()
	assert.Equal(t, gen.Count.Load(), int64(0))
	assert.Equal(t, gen.SmoothedRange.Load(), 0.0)
}

func TestResolverFallback(t *testing.T) {
	fiveMinute := flatCandles(5, 0.5, shared.FiveMinute)
	daily := flatCandles(30, 10, shared.OneDay)

	// Ensure the none policy surfaces an error on short intraday history.
	resolver := NewResolver(&ResolverConfig{Policy: FallbackNone})
	_, err := resolver.Resolve(fiveMinute, daily)
	assert.Error(t, err)

	// Ensure the daily fraction policy substitutes a fraction of the daily atr.
	resolver = NewResolver(&ResolverConfig{Policy: FallbackDailyFraction})
	atr, err := resolver.Resolve(fiveMinute, daily)
	assert.NoError(t, err)
	if math.Abs(atr-10*dailyATRFraction) > 1e-9 {
		t.Errorf("expected %v, got %v", 10*dailyATRFraction, atr)
	}

	// Ensure the fallback is bypassed when intraday history suffices.
	atr, err = resolver.Resolve(flatCandles(30, 0.5, shared.FiveMinute), daily)
	assert.NoError(t, err)
	assert.Equal(t, atr, 0.5)

	// Ensure short daily history fails the fallback too.
	_, err = resolver.Resolve(fiveMinute, flatCandles(5, 10, shared.OneDay))
	assert.Error(t, err)
}

func TestFallbackPolicyString(t *testing.T) {
	tests := []struct {
		policy FallbackPolicy
		want   string
	}{
		{FallbackNone, "none"},
		{FallbackDailyFraction, "daily-fraction"},
		{FallbackPolicy(9), "unknown"},
	}

	for _, test := range tests {
		if test.policy.String() != test.want {
			t.Errorf("expected %s, got %s", test.want, test.policy.String())
		}
	}
}
