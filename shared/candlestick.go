package shared

import (
	"math"
	"time"
)

// Kind represents the type of candlestick.
type Kind int

const (
	Marubozu Kind = iota
	Pinbar
	Doji
	Unknown
)

// Sentiment represents the candlestick sentiment.
type Sentiment int

const (
	Neutral Sentiment = iota
	Bullish
	Bearish
)

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	Open   float64
	Low    float64
	High   float64
	Close  float64
	Volume float64
	Date   time.Time

	// Metadata fields.
	Market    string
	Timeframe Timeframe
}

// Mid returns the midpoint of the candle's range.
func (c *Candlestick) Mid() float64 {
	return (c.High + c.Low) / 2
}

// Range returns the candle's full price span.
func (c *Candlestick) Range() float64 {
	return c.High - c.Low
}

// Body returns the size of the candle body.
func (c *Candlestick) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// UpperWick returns the size of the candle's upper wick.
func (c *Candlestick) UpperWick() float64 {
	return c.High - math.Max(c.Open, c.Close)
}

// LowerWick returns the size of the candle's lower wick.
func (c *Candlestick) LowerWick() float64 {
	return math.Min(c.Open, c.Close) - c.Low
}

// FetchSentiment returns the provided candlestick's sentiment.
func (c *Candlestick) FetchSentiment() Sentiment {
	sentiment := c.Close - c.Open
	switch {
	case sentiment < 0:
		return Bearish
	case sentiment > 0:
		return Bullish
	default:
		return Neutral
	}
}

// FetchKind returns the candlestick type.
func (c *Candlestick) FetchKind() Kind {
	candleRange := c.Range()
	if candleRange == 0 {
		return Unknown
	}

	bodyPercent := c.Body() / candleRange
	upperWickPercent := c.UpperWick() / candleRange
	lowerWickPercent := c.LowerWick() / candleRange

	switch {
	case bodyPercent <= 0.3 && (upperWickPercent >= 0.6 || lowerWickPercent >= 0.6):
		// If the candle body is not more than 30 percent of the candle and has one of its wicks
		// being at least 60 percent of the candle, it's a pin bar.
		return Pinbar
	case bodyPercent <= 0.3 && upperWickPercent >= 0.3 && lowerWickPercent >= 0.3:
		// If the candle body is not more than 30 percent of the candle and has almost
		// identical wicks on both sides of it, it's a doji candle.
		return Doji
	case bodyPercent >= 0.7:
		// If the candle body accounts for over 70 percent of the candle, It is a marubozu candle.
		return Marubozu
	default:
		return Unknown
	}
}
