// Package service wires fetching, producers, discovery, confluence and
// identification into periodic market scans.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/XIIITrading/Meridian-sub001/candles"
	"github.com/XIIITrading/Meridian-sub001/confluence"
	"github.com/XIIITrading/Meridian-sub001/database"
	"github.com/XIIITrading/Meridian-sub001/discovery"
	"github.com/XIIITrading/Meridian-sub001/fetch"
	"github.com/XIIITrading/Meridian-sub001/identify"
	"github.com/XIIITrading/Meridian-sub001/indicator"
	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// defaultScanInterval is the default period between market scans.
	defaultScanInterval = time.Minute * 15
	// intradayLookbackDays is how far back 5 minute candles are fetched.
	intradayLookbackDays = 5
	// dailyLookbackDays is how far back daily candles are fetched.
	dailyLookbackDays = 45
	// atrSnapshotSize is the number of resolved atr entries retained per market.
	atrSnapshotSize = 32
)

// FractalSourcer defines the requirements for providing swing fractals.
type FractalSourcer interface {
	// Fractals returns the swing candles for the provided market.
	Fractals(ctx context.Context, market string) ([]identify.Fractal, error)
}

// ScannerConfig represents the configuration struct for the scanner service.
type ScannerConfig struct {
	// Markets represents the scanned markets.
	Markets []string
	// FMPAPIKey is the FMP service API Key.
	FMPAPIKey string
	// DataFilePath optionally serves market data from a file instead of
	// the FMP api, used for offline runs.
	DataFilePath string
	// ScanInterval is the period between scans. Defaults when unset.
	ScanInterval time.Duration
	// WeightsPath optionally loads the confluence weight table from a
	// yaml file.
	WeightsPath string
	// MergeOverlapping toggles overlap based zone clustering.
	MergeOverlapping bool
	// MergeIdentical toggles proximity based zone clustering.
	MergeIdentical bool
	// Producers are the confluence item sources.
	Producers []shared.ConfluenceSourcer
	// FractalSource optionally provides swing fractals for identification.
	FractalSource FractalSourcer
	// Storage persists analysis runs. Persistence is skipped when nil.
	Storage database.RunStorer
	// Fetcher overrides the market data source, used by tests.
	Fetcher shared.MarketFetcher
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sane inputs.
func (cfg *ScannerConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for scanner service"))
	}
	if cfg.FMPAPIKey == "" && cfg.DataFilePath == "" && cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("no market data source configured for scanner service"))
	}
	if len(cfg.Producers) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no confluence producers provided for scanner service"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = defaultScanInterval
	}

	return errs
}

// Scanner represents a confluence zone scanning service.
type Scanner struct {
	cfg              *ScannerConfig
	fetcher          shared.MarketFetcher
	fetchManager     *fetch.Manager
	atrResolver      *indicator.Resolver
	discoveryEngine  *discovery.Engine
	confluenceEngine *confluence.Engine
	identifier       *identify.Identifier
	weights          *confluence.Weights
	jobScheduler     *gocron.Scheduler
	atrGenerators    map[string]*indicator.ATRGenerator
	atrSnapshots     map[string]*indicator.ATRSnapshot
	logger           *zerolog.Logger
	wg               sync.WaitGroup
}

// NewScanner initializes a new scanner service.
func NewScanner(cfg *ScannerConfig) (*Scanner, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	logger := log.With().Str("service", "scanner").Logger()

	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return nil, fmt.Errorf("fetching new york time: %w", err)
	}

	fetcher := cfg.Fetcher
	switch {
	case fetcher != nil:
		// Keep the provided fetcher.
	case cfg.DataFilePath != "":
		fetcher, err = fetch.NewFileSource(&fetch.FileSourceConfig{
			Market:    cfg.Markets[0],
			Timeframe: shared.FiveMinute,
			FilePath:  cfg.DataFilePath,
		})
		if err != nil {
			return nil, fmt.Errorf("creating file source: %w", err)
		}
	default:
		fetcher = fetch.NewFMPClient(&fetch.FMPConfig{APIKey: cfg.FMPAPIKey})
	}

	fetchMgrLogger := logger.With().Str("component", "fetchmanager").Logger()
	fetchMgr, err := fetch.NewManager(&fetch.ManagerConfig{
		Client: fetcher,
		Logger: &fetchMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fetch manager: %w", err)
	}

	resolverLogger := logger.With().Str("component", "atrresolver").Logger()
	atrResolver := indicator.NewResolver(&indicator.ResolverConfig{
		Policy: indicator.FallbackDailyFraction,
		Logger: &resolverLogger,
	})

	selectorLogger := logger.With().Str("component", "candleselector").Logger()
	selector := candles.NewSelector(&candles.SelectorConfig{
		Logger: &selectorLogger,
	})

	discoveryLogger := logger.With().Str("component", "discovery").Logger()
	discoveryEngine := discovery.NewEngine(&discovery.EngineConfig{
		Cluster: discovery.ClusterConfig{
			MergeOverlapping: cfg.MergeOverlapping,
			MergeIdentical:   cfg.MergeIdentical,
		},
		Selector: selector,
		Logger:   &discoveryLogger,
	})

	weights := confluence.DefaultWeights()
	if cfg.WeightsPath != "" {
		weights, err = confluence.LoadWeights(cfg.WeightsPath)
		if err != nil {
			return nil, fmt.Errorf("loading confluence weights: %w", err)
		}
	}

	confluenceLogger := logger.With().Str("component", "confluence").Logger()
	confluenceEngine, err := confluence.NewEngine(&confluence.EngineConfig{
		Weights: weights,
		Logger:  &confluenceLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating confluence engine: %w", err)
	}

	identifierLogger := logger.With().Str("component", "identifier").Logger()
	identifier, err := identify.NewIdentifier(&identify.IdentifierConfig{
		Logger: &identifierLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating identifier: %w", err)
	}

	jobScheduler := gocron.NewScheduler(loc)

	atrGenerators := make(map[string]*indicator.ATRGenerator, len(cfg.Markets))
	atrSnapshots := make(map[string]*indicator.ATRSnapshot, len(cfg.Markets))
	for _, market := range cfg.Markets {
		snapshot, err := indicator.NewATRSnapshot(atrSnapshotSize)
		if err != nil {
			return nil, fmt.Errorf("creating atr snapshot for %s: %w", market, err)
		}
		atrGenerators[market] = indicator.NewATRGenerator(market, shared.FiveMinute, indicator.DefaultATRPeriod)
		atrSnapshots[market] = snapshot
	}

	service := &Scanner{
		cfg:              cfg,
		fetcher:          fetcher,
		fetchManager:     fetchMgr,
		atrResolver:      atrResolver,
		discoveryEngine:  discoveryEngine,
		confluenceEngine: confluenceEngine,
		identifier:       identifier,
		weights:          weights,
		jobScheduler:     jobScheduler,
		atrGenerators:    atrGenerators,
		atrSnapshots:     atrSnapshots,
		logger:           &logger,
	}

	return service, nil
}

// collectItems gathers confluence items from all producers for the
// provided market. A failing producer is logged and skipped, the rest
// still contribute.
func (s *Scanner) collectItems(ctx context.Context, market string) ([]shared.ConfluenceItem, map[shared.SourceKind][]shared.ConfluenceItem) {
	var flat []shared.ConfluenceItem
	grouped := make(map[shared.SourceKind][]shared.ConfluenceItem)

	for _, producer := range s.cfg.Producers {
		items, err := producer.Items(ctx, market)
		if err != nil {
			s.logger.Error().Msgf("collecting %s items for %s: %v", producer.Kind(), market, err)
			continue
		}

		flat = append(flat, items...)
		grouped[producer.Kind()] = append(grouped[producer.Kind()], items...)
	}

	return flat, grouped
}

// pivotZones builds fixed target zones from the camarilla pivot items,
// each spanning one atr to either side of its pivot.
func (s *Scanner) pivotZones(grouped map[shared.SourceKind][]shared.ConfluenceItem, atr float64) []*confluence.FixedZone {
	pivotKinds := []shared.SourceKind{shared.CamMonthly, shared.CamWeekly, shared.CamDaily}

	var zones []*confluence.FixedZone
	for _, kind := range pivotKinds {
		for _, item := range grouped[kind] {
			zone, err := confluence.NewFixedZone(item.Name, item.Center, atr)
			if err != nil {
				s.logger.Error().Msgf("building pivot zone from %s: %v", item.Name, err)
				continue
			}

			// A pivot should not score against its own band.
			zone.SetSourceEnabled(kind, false)
			zones = append(zones, zone)
		}
	}

	return zones
}

// streamCandles feeds candles not yet seen by the market's atr generator
// through it, keeping the streaming atr current between scans.
func (s *Scanner) streamCandles(market string, candles []shared.Candlestick) {
	generator := s.atrGenerators[market]
	last := generator.LastUpdateTime.Load()

	for idx := range candles {
		candle := &candles[idx]
		if last != nil && !candle.Date.After(*last) {
			continue
		}

		_, err := generator.Update(candle)
		if err != nil {
			s.logger.Error().Msgf("updating atr generator for %s: %v", market, err)
			return
		}
	}
}

// resolveATR produces the scan's 5 minute atr and records it in the
// market's snapshot. The warmed up streaming generator takes precedence,
// then the batch resolver; when both come up short the last recorded
// snapshot entry is carried forward.
func (s *Scanner) resolveATR(market string, fiveMinute, daily []shared.Candlestick, now time.Time) (float64, error) {
	s.streamCandles(market, fiveMinute)

	var value float64
	current := s.atrGenerators[market].Current.Load()
	switch {
	case current != nil:
		value = current.Value
	default:
		resolved, err := s.atrResolver.Resolve(fiveMinute, daily)
		if err != nil {
			last := s.atrSnapshots[market].Last()
			if last == nil {
				return 0, err
			}

			s.logger.Warn().Msgf("carrying the last recorded atr forward for %s: %v", market, err)
			resolved = last.Value
		}
		value = resolved
	}

	s.atrSnapshots[market].Update(&indicator.ATR{Value: value, Date: now})

	return value, nil
}

// fractals fetches swing fractals for the provided market when a fractal
// source is configured.
func (s *Scanner) fractals(ctx context.Context, market string) []identify.Fractal {
	if s.cfg.FractalSource == nil {
		return nil
	}

	fractals, err := s.cfg.FractalSource.Fractals(ctx, market)
	if err != nil {
		s.logger.Error().Msgf("fetching fractals for %s: %v", market, err)
		return nil
	}

	return fractals
}

// Scan runs a full analysis pass for the provided market and persists
// the outcome.
func (s *Scanner) Scan(ctx context.Context, market string) (*database.AnalysisRun, error) {
	now, _, err := shared.NewYorkTime()
	if err != nil {
		return nil, fmt.Errorf("fetching new york time: %w", err)
	}

	price, err := s.fetchManager.FetchLatestPrice(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("fetching latest price for %s: %w", market, err)
	}

	fiveMinute, err := s.fetchManager.FetchCandles(ctx, market, shared.FiveMinute,
		now.AddDate(0, 0, -intradayLookbackDays), now)
	if err != nil {
		return nil, fmt.Errorf("fetching 5 minute candles for %s: %w", market, err)
	}

	daily, err := s.fetchManager.FetchCandles(ctx, market, shared.OneDay,
		now.AddDate(0, 0, -dailyLookbackDays), now)
	if err != nil {
		s.logger.Error().Msgf("fetching daily candles for %s: %v", market, err)
	}

	atr, err := s.resolveATR(market, fiveMinute, daily, now)
	if err != nil {
		return nil, fmt.Errorf("resolving atr for %s: %w", market, err)
	}

	items, grouped := s.collectItems(ctx, market)

	zones, err := s.discoveryEngine.Discover(items, price, fiveMinute, now)
	if err != nil {
		return nil, fmt.Errorf("discovering zones for %s: %w", market, err)
	}

	pivotZones := s.pivotZones(grouped, atr)
	var rankedPivots []*confluence.FixedZone
	if len(pivotZones) > 0 {
		result, err := s.confluenceEngine.Calculate(pivotZones, grouped)
		if err != nil {
			return nil, fmt.Errorf("calculating pivot confluence for %s: %w", market, err)
		}

		rankedPivots = result.RankedZones()
		if result.HighestZone != nil {
			s.logger.Info().Msgf("%s highest pivot confluence: %s at %.2f (%s)",
				market, result.HighestZone.LevelName, result.HighestZone.Score,
				result.HighestZone.Tier)
		}
	}

	levels, err := s.identifier.Identify(&identify.Request{
		Fractals:       s.fractals(ctx, market),
		Zones:          zones,
		ReferencePrice: price,
		ATR:            atr,
		AnalysisTime:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("identifying trading levels for %s: %w", market, err)
	}

	run := &database.AnalysisRun{
		Market:         market,
		ReferencePrice: price,
		Zones:          zones,
		PivotZones:     rankedPivots,
		Levels:         levels,
		CreatedOn:      now,
	}

	if s.cfg.Storage != nil {
		err = s.cfg.Storage.PersistAnalysisRun(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("persisting analysis run for %s: %w", market, err)
		}
	}

	s.logger.Info().Msgf("scanned %s: %d zones, %d trading levels at price %.2f",
		market, len(zones), len(levels), price)

	return run, nil
}

// scanAll scans every configured market, flushing the candle cache after.
func (s *Scanner) scanAll(ctx context.Context) {
	for _, market := range s.cfg.Markets {
		_, err := s.Scan(ctx, market)
		if err != nil {
			s.logger.Error().Msgf("scanning %s: %v", market, err)
		}
	}

	s.fetchManager.Flush()
}

// Run handles the lifecycle processes of the scanner service.
func (s *Scanner) Run(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scanAll(ctx)
	}()

	_, err := s.jobScheduler.Every(s.cfg.ScanInterval).Do(func() {
		s.scanAll(ctx)
	})
	if err != nil {
		s.logger.Error().Msgf("scheduling periodic scans: %v", err)
		s.cfg.Cancel()
	}

	s.jobScheduler.StartAsync()

	<-ctx.Done()
	s.jobScheduler.Stop()
	s.wg.Wait()
}
