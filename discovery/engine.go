package discovery

import (
	"fmt"
	"sort"
	"time"

	"github.com/XIIITrading/Meridian-sub001/candles"
	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/rs/zerolog"
)

const (
	// freshCandleMaxAge and recentCandleMaxAge bound the ages at which an
	// associated candle boosts a zone's recency score.
	freshCandleMaxAge  = 5 * 24 * time.Hour
	recentCandleMaxAge = 10 * 24 * time.Hour
	// freshCandleBoost and recentCandleBoost are the recency multipliers
	// applied to zones with recently touched candles.
	freshCandleBoost  = 1.2
	recentCandleBoost = 1.1
)

// EngineConfig represents the configuration for the zone discovery engine.
type EngineConfig struct {
	// Cluster selects the zone clustering mode.
	Cluster ClusterConfig
	// TierStrategy maps scored zones to confidence tiers. Defaults to
	// member count based tiering.
	TierStrategy shared.TierStrategy
	// Selector associates zones with their best representative candle.
	// When nil, zones are ranked on confluence alone.
	Selector *candles.Selector
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Engine orchestrates clustering, scoring and candle association to turn
// a flat set of confluence items into a ranked zone list. The engine holds
// no mutable state across calls and is safe for concurrent independent runs.
type Engine struct {
	cfg    *EngineConfig
	scorer *Scorer
}

// NewEngine initializes a new zone discovery engine.
func NewEngine(cfg *EngineConfig) *Engine {
	return &Engine{
		cfg:    cfg,
		scorer: NewScorer(&ScorerConfig{TierStrategy: cfg.TierStrategy}),
	}
}

// Discover clusters the provided confluence items into zones, scores and
// tiers them, associates each with its best historical candle from the
// provided candidates and returns the zones ranked by score. An empty item
// set is a valid outcome and yields an empty result, not an error.
func (e *Engine) Discover(items []shared.ConfluenceItem, referencePrice float64,
	candidates []shared.Candlestick, analysisTime time.Time) ([]*shared.Zone, error) {
	if len(items) == 0 {
		if e.cfg.Logger != nil {
			e.cfg.Logger.Warn().Msg("no confluence items to process")
		}
		return []*shared.Zone{}, nil
	}

	if referencePrice <= 0 {
		return nil, fmt.Errorf("discovering zones: reference price must be positive, got %v", referencePrice)
	}

	zones, err := Cluster(items, referencePrice, &e.cfg.Cluster)
	if err != nil {
		return nil, fmt.Errorf("discovering zones: %w", err)
	}

	for idx := range zones {
		e.scorer.Score(zones[idx])
	}

	if e.cfg.Selector != nil && len(candidates) > 0 {
		e.associateCandles(zones, candidates, analysisTime)
	}

	// Rank by score, breaking exact ties by lowest zone id.
	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].Score != zones[j].Score {
			return zones[i].Score > zones[j].Score
		}
		return zones[i].ID < zones[j].ID
	})

	if e.cfg.Logger != nil {
		e.cfg.Logger.Info().Msgf("discovered %d zones from %d confluence items", len(zones), len(items))
	}

	return zones, nil
}

// associateCandles attaches each zone's best representative candle and
// applies the recency boost for freshly touched zones. Zones with no
// overlapping candle keep ranking on confluence alone.
func (e *Engine) associateCandles(zones []*shared.Zone, candidates []shared.Candlestick, analysisTime time.Time) {
	for idx := range zones {
		zone := zones[idx]

		best, ok := e.cfg.Selector.SelectBest(zone, candidates)
		if !ok {
			if e.cfg.Logger != nil {
				e.cfg.Logger.Debug().Msgf("zone %d: no overlapping candle, ranking on confluence alone", zone.ID)
			}
			continue
		}

		zone.BestCandle = best

		if analysisTime.IsZero() {
			continue
		}

		age := analysisTime.Sub(best.Date)
		switch {
		case age <= freshCandleMaxAge:
			zone.RecencyScore = freshCandleBoost
		case age <= recentCandleMaxAge:
			zone.RecencyScore = recentCandleBoost
		default:
			zone.RecencyScore = 1.0
		}

		// Rescore with the recency boost folded in.
		e.scorer.Score(zone)
	}
}
