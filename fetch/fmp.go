// Package fetch provides market data access backed by the Financial
// Modeling Prep API, with a caching manager layered on top.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/tidwall/gjson"
)

const (
	// defaultBaseURL is the FMP api base url.
	defaultBaseURL = "https://financialmodelingprep.com/stable"
	// dateOnlyLayout is the date format used by daily candle payloads.
	dateOnlyLayout = "2006-01-02"
)

// FMPConfig represents the configuration for the FMP client.
type FMPConfig struct {
	// APIKey is the FMP API Key.
	APIKey string
	// BaseURL overrides the api base url, used by tests.
	BaseURL string
}

// FMPClient represents the Financial Modeling Preparation (FMP) API client.
type FMPClient struct {
	cfg   *FMPConfig
	httpc http.Client
	buf   *bytes.Buffer
}

// Ensure the FMPClient implements the MarketFetcher interface.
var _ shared.MarketFetcher = (*FMPClient)(nil)

// NewFMPClient instantiates a new FMP client.
func NewFMPClient(cfg *FMPConfig) *FMPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &FMPClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 5},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}
}

// formURL creates full urls including parameters for the api.
func (c *FMPClient) formURL(path string, params string) string {
	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	c.buf.WriteString("?")
	c.buf.WriteString(params)
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// fetch executes the provided request and returns the response payload as
// a json array.
func (c *FMPClient) fetch(ctx context.Context, formedURL string) ([]gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	data := gjson.GetBytes(body, "").Array()

	return data, nil
}

// ParseCandlesticks parses candlesticks from the provided json data.
func ParseCandlesticks(data []gjson.Result, market string, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	candles := make([]shared.Candlestick, 0, len(data))

	for idx := range data {
		var candle shared.Candlestick

		candle.Open = data[idx].Get("open").Float()
		candle.Low = data[idx].Get("low").Float()
		candle.High = data[idx].Get("high").Float()
		candle.Close = data[idx].Get("close").Float()
		candle.Volume = data[idx].Get("volume").Float()

		candle.Market = market
		candle.Timeframe = timeframe

		raw := data[idx].Get("date").String()
		layout := shared.DateLayout
		if len(raw) == len(dateOnlyLayout) {
			layout = dateOnlyLayout
		}

		dt, err := time.Parse(layout, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing candlestick date: %w", err)
		}

		candle.Date = dt
		candles = append(candles, candle)
	}

	return candles, nil
}

// timeframePath returns the api path serving candles for the provided timeframe.
func timeframePath(timeframe shared.Timeframe) (string, error) {
	switch timeframe {
	case shared.FiveMinute:
		return "/historical-chart/5min", nil
	case shared.FifteenMinute:
		return "/historical-chart/15min", nil
	case shared.OneHour:
		return "/historical-chart/1hour", nil
	case shared.OneDay:
		return "/historical-price-eod/full", nil
	default:
		return "", fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}
}

// FetchCandles fetches historical market data for the provided timeframe.
func (c *FMPClient) FetchCandles(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	path, err := timeframePath(timeframe)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("symbol", market)
	params.Add("apikey", c.cfg.APIKey)
	params.Add("from", start.Format(dateOnlyLayout))
	if !end.IsZero() {
		params.Add("to", end.Format(dateOnlyLayout))
	}

	data, err := c.fetch(ctx, c.formURL(path, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("fetching historical data (%s) for %s: %w", timeframe.String(), market, err)
	}

	candles, err := ParseCandlesticks(data, market, timeframe)
	if err != nil {
		return nil, fmt.Errorf("parsing candlesticks for %s: %w", market, err)
	}

	return candles, nil
}

// FetchLatestPrice fetches the latest traded price for the provided market.
func (c *FMPClient) FetchLatestPrice(ctx context.Context, market string) (float64, error) {
	const quotePath = "/quote-short"

	params := url.Values{}
	params.Add("symbol", market)
	params.Add("apikey", c.cfg.APIKey)

	data, err := c.fetch(ctx, c.formURL(quotePath, params.Encode()))
	if err != nil {
		return 0, fmt.Errorf("fetching latest price for %s: %w", market, err)
	}

	if len(data) == 0 {
		return 0, fmt.Errorf("no quote data returned for %s", market)
	}

	price := data[0].Get("price").Float()
	if price <= 0 {
		return 0, fmt.Errorf("invalid price %v returned for %s", price, market)
	}

	return price, nil
}
