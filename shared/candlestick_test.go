package shared

import (
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestCandlestickDerivedFields(t *testing.T) {
	candle := Candlestick{
		Open:  10,
		High:  16,
		Low:   8,
		Close: 12,
	}

	assert.Equal(t, candle.Mid(), float64(12))
	assert.Equal(t, candle.Range(), float64(8))
	assert.Equal(t, candle.Body(), float64(2))
	assert.Equal(t, candle.UpperWick(), float64(4))
	assert.Equal(t, candle.LowerWick(), float64(2))
}

func TestCandlestickSentiment(t *testing.T) {
	tests := []struct {
		name   string
		candle Candlestick
		want   Sentiment
	}{
		{
			"bullish candle",
			Candlestick{Open: 10, Close: 12, High: 13, Low: 9},
			Bullish,
		},
		{
			"bearish candle",
			Candlestick{Open: 12, Close: 10, High: 13, Low: 9},
			Bearish,
		},
		{
			"neutral candle",
			Candlestick{Open: 10, Close: 10, High: 11, Low: 9},
			Neutral,
		},
	}

	for _, test := range tests {
		sentiment := test.candle.FetchSentiment()
		if sentiment != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, sentiment)
		}
	}
}

func TestCandlestickKind(t *testing.T) {
	tests := []struct {
		name   string
		candle Candlestick
		want   Kind
	}{
		{
			"marubozu candle",
			Candlestick{Open: 10, Close: 19, High: 20, Low: 10},
			Marubozu,
		},
		{
			"pin bar candle",
			Candlestick{Open: 18.5, Close: 19, High: 20, Low: 10},
			Pinbar,
		},
		{
			"doji candle",
			Candlestick{Open: 14.8, Close: 15.2, High: 20, Low: 10},
			Doji,
		},
		{
			"zero range candle",
			Candlestick{Open: 10, Close: 10, High: 10, Low: 10},
			Unknown,
		},
	}

	for _, test := range tests {
		kind := test.candle.FetchKind()
		if kind != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, kind)
		}
	}
}
