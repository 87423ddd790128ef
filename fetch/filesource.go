package fetch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/tidwall/gjson"
)

// FileSourceConfig represents the file backed data source configuration.
type FileSourceConfig struct {
	// Market represents the market the file data covers.
	Market string
	// Timeframe represents the timeframe of the file data.
	Timeframe shared.Timeframe
	// FilePath is the filepath to the market data.
	FilePath string
}

// FileSource serves market data from a json file, used for offline
// analysis runs and replays.
type FileSource struct {
	cfg     *FileSourceConfig
	candles []shared.Candlestick
}

// Ensure the FileSource implements the MarketFetcher interface.
var _ shared.MarketFetcher = (*FileSource)(nil)

// NewFileSource initializes a new file backed data source.
func NewFileSource(cfg *FileSourceConfig) (*FileSource, error) {
	readb, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("reading market data from file with path '%s': %w", cfg.FilePath, err)
	}

	data := gjson.GetBytes(readb, "").Array()

	candles, err := ParseCandlesticks(data, cfg.Market, cfg.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("parsing candlesticks: %w", err)
	}

	return &FileSource{
		cfg:     cfg,
		candles: candles,
	}, nil
}

// FetchCandles returns the file's candles within the provided range.
func (f *FileSource) FetchCandles(_ context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	if market != f.cfg.Market {
		return nil, fmt.Errorf("file source covers %s, got request for %s", f.cfg.Market, market)
	}
	if timeframe != f.cfg.Timeframe {
		return nil, fmt.Errorf("file source covers timeframe %s, got request for %s",
			f.cfg.Timeframe.String(), timeframe.String())
	}

	candles := make([]shared.Candlestick, 0, len(f.candles))
	for idx := range f.candles {
		date := f.candles[idx].Date
		if date.Before(start) {
			continue
		}
		if !end.IsZero() && date.After(end) {
			continue
		}

		candles = append(candles, f.candles[idx])
	}

	return candles, nil
}

// FetchLatestPrice returns the close of the file's last candle.
func (f *FileSource) FetchLatestPrice(_ context.Context, market string) (float64, error) {
	if market != f.cfg.Market {
		return 0, fmt.Errorf("file source covers %s, got request for %s", f.cfg.Market, market)
	}
	if len(f.candles) == 0 {
		return 0, fmt.Errorf("file source for %s has no candles", market)
	}

	return f.candles[len(f.candles)-1].Close, nil
}
