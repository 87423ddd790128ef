package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// defaultPriceTTL is how long a cached latest price stays fresh.
	defaultPriceTTL = time.Second * 15
)

// ManagerConfig represents the configuration for the caching fetch manager.
type ManagerConfig struct {
	// Client is the underlying market data client.
	Client shared.MarketFetcher
	// PriceTTL is how long cached latest prices stay fresh. Defaults when unset.
	PriceTTL time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane defaults are set.
func (cfg *ManagerConfig) Validate() error {
	if cfg.Client == nil {
		return fmt.Errorf("client cannot be nil")
	}
	if cfg.PriceTTL == 0 {
		cfg.PriceTTL = defaultPriceTTL
	}

	return nil
}

// cachedPrice is a latest price with its fetch time.
type cachedPrice struct {
	price float64
	at    time.Time
}

// candleKey identifies one cached candle series.
type candleKey struct {
	market    string
	timeframe shared.Timeframe
	start     string
	end       string
}

// Manager wraps a market data client with per-scan caching. Candle series
// are cached by market, timeframe and requested range, latest prices by
// market with a freshness window.
type Manager struct {
	cfg     *ManagerConfig
	hits    atomic.Int64
	misses  atomic.Int64
	mtx     sync.RWMutex
	candles map[candleKey][]shared.Candlestick
	prices  map[string]*atomic.Pointer[cachedPrice]
}

// Ensure the Manager implements the MarketFetcher interface.
var _ shared.MarketFetcher = (*Manager)(nil)

// NewManager initializes the caching fetch manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	mgr := &Manager{
		cfg:     cfg,
		candles: make(map[candleKey][]shared.Candlestick),
		prices:  make(map[string]*atomic.Pointer[cachedPrice]),
	}

	return mgr, nil
}

// key builds a cache key for the provided candle request.
func key(market string, timeframe shared.Timeframe, start, end time.Time) candleKey {
	return candleKey{
		market:    market,
		timeframe: timeframe,
		start:     start.Format(shared.DateLayout),
		end:       end.Format(shared.DateLayout),
	}
}

// FetchCandles fetches historical market data, serving repeated requests
// for the same range from the cache.
func (m *Manager) FetchCandles(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	k := key(market, timeframe, start, end)

	m.mtx.RLock()
	cached, ok := m.candles[k]
	m.mtx.RUnlock()
	if ok {
		m.hits.Add(1)
		return cached, nil
	}

	m.misses.Add(1)
	candles, err := m.cfg.Client.FetchCandles(ctx, market, timeframe, start, end)
	if err != nil {
		return nil, err
	}

	m.mtx.Lock()
	m.candles[k] = candles
	m.mtx.Unlock()

	return candles, nil
}

// FetchLatestPrice fetches the latest traded price, reusing a recent
// quote when one is within the freshness window.
func (m *Manager) FetchLatestPrice(ctx context.Context, market string) (float64, error) {
	m.mtx.RLock()
	entry, ok := m.prices[market]
	m.mtx.RUnlock()

	if ok {
		cached := entry.Load()
		if cached != nil && time.Since(cached.at) < m.cfg.PriceTTL {
			m.hits.Add(1)
			return cached.price, nil
		}
	}

	m.misses.Add(1)
	price, err := m.cfg.Client.FetchLatestPrice(ctx, market)
	if err != nil {
		return 0, err
	}

	if !ok {
		entry = &atomic.Pointer[cachedPrice]{}
		m.mtx.Lock()
		m.prices[market] = entry
		m.mtx.Unlock()
	}
	entry.Store(&cachedPrice{price: price, at: time.Now()})

	return price, nil
}

// Flush drops all cached candle series, called between scans.
func (m *Manager) Flush() {
	m.mtx.Lock()
	m.candles = make(map[candleKey][]shared.Candlestick)
	m.mtx.Unlock()

	if m.cfg.Logger != nil {
		m.cfg.Logger.Debug().Msgf("flushed candle cache, session hits %d, misses %d",
			m.hits.Load(), m.misses.Load())
	}
}

// CacheStats reports cache hits and misses since startup.
func (m *Manager) CacheStats() (int64, int64) {
	return m.hits.Load(), m.misses.Load()
}
