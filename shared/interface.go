package shared

import (
	"context"
	"time"
)

// MarketFetcher defines the requirements for fetching market data.
type MarketFetcher interface {
	// FetchCandles fetches historical market data for the provided timeframe,
	// ordered by timestamp. An empty result is valid and means no data.
	FetchCandles(ctx context.Context, market string, timeframe Timeframe, start time.Time, end time.Time) ([]Candlestick, error)
	// FetchLatestPrice fetches the most recent traded price for the market.
	FetchLatestPrice(ctx context.Context, market string) (float64, error)
}

// ConfluenceSourcer defines the requirements for producing confluence items
// from an indicator source. Failure of one sourcer must not prevent items
// from other sourcers being scored.
type ConfluenceSourcer interface {
	// Kind returns the source kind shared by the produced items.
	Kind() SourceKind
	// Items produces the source's confluence items for the provided market.
	Items(ctx context.Context, market string) ([]ConfluenceItem, error)
}
