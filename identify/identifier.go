package identify

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/XIIITrading/Meridian-sub001/candles"
	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/rs/zerolog"
)

const (
	// defaultOverlapThreshold is the minimum fraction of a fractal's range
	// that must fall inside a zone for the zone to count.
	defaultOverlapThreshold = 0.2
	// defaultNoConfluenceMaxDistance is the maximum distance, as a
	// percentage of the reference price, at which a fractal with no
	// confluence is still kept.
	defaultNoConfluenceMaxDistance = 2.0
	// defaultDedupeThreshold is the price distance below which two levels
	// are considered duplicates.
	defaultDedupeThreshold = 0.5
	// defaultMinCoverage is the minimum number of levels required on each
	// side of the reference price.
	defaultMinCoverage = 3
	// syntheticTierFloor is the lowest zone tier eligible for synthetic
	// level creation.
	syntheticTierFloor = shared.L3
	// syntheticBonus is the priority multiplier for synthetic levels.
	syntheticBonus = 1.2
	// coveredDistanceATRMultiple is the level-to-zone-center distance, in
	// ATR multiples, below which a zone counts as already covered.
	coveredDistanceATRMultiple = 2.0
	// proximityHorizonPercent is the distance percentage beyond which a
	// level's proximity factor bottoms out.
	proximityHorizonPercent = 10.0
)

// IdentifierConfig is the configuration for the trading level identifier.
type IdentifierConfig struct {
	// OverlapThreshold is the minimum overlap fraction for a zone to count
	// toward a fractal. Defaults when unset.
	OverlapThreshold float64
	// NoConfluenceMaxDistance is the distance percentage within which
	// fractals without confluence are still included. Defaults when unset.
	NoConfluenceMaxDistance float64
	// DedupeThreshold is the price distance treating two levels as
	// duplicates. Defaults when unset.
	DedupeThreshold float64
	// MinAbove is the minimum number of levels above the reference price.
	// Defaults when unset.
	MinAbove int
	// MinBelow is the minimum number of levels below the reference price.
	// Defaults when unset.
	MinBelow int
	// Logger is the identifier logger.
	Logger *zerolog.Logger
}

// Validate applies defaults to unset knobs.
func (cfg *IdentifierConfig) Validate() error {
	var errs error

	if cfg.OverlapThreshold == 0 {
		cfg.OverlapThreshold = defaultOverlapThreshold
	}
	if cfg.OverlapThreshold < 0 || cfg.OverlapThreshold > 1 {
		errs = errors.Join(errs, fmt.Errorf("overlap threshold must be within [0, 1], got %v", cfg.OverlapThreshold))
	}
	if cfg.NoConfluenceMaxDistance == 0 {
		cfg.NoConfluenceMaxDistance = defaultNoConfluenceMaxDistance
	}
	if cfg.DedupeThreshold == 0 {
		cfg.DedupeThreshold = defaultDedupeThreshold
	}
	if cfg.MinAbove == 0 {
		cfg.MinAbove = defaultMinCoverage
	}
	if cfg.MinBelow == 0 {
		cfg.MinBelow = defaultMinCoverage
	}

	return errs
}

// Request is a trading level identification request.
type Request struct {
	// Fractals are the swing candles under consideration.
	Fractals []Fractal
	// Zones are the discovered confluence zones.
	Zones []*shared.Zone
	// ReferencePrice is the current market price.
	ReferencePrice float64
	// ATR is the 5 minute average true range, used for synthetic level
	// geometry and coverage distance checks.
	ATR float64
	// ProximityFilter optionally drops levels further than this price
	// range from the reference price. Zero disables the filter.
	ProximityFilter float64
	// AnalysisTime stamps synthetic levels.
	AnalysisTime time.Time
}

// Validate asserts the request is well formed.
func (r *Request) Validate() error {
	var errs error

	if r.ReferencePrice <= 0 {
		errs = errors.Join(errs, fmt.Errorf("reference price must be positive, got %v", r.ReferencePrice))
	}
	if r.ATR <= 0 {
		errs = errors.Join(errs, fmt.Errorf("atr must be positive, got %v", r.ATR))
	}
	if r.ProximityFilter < 0 {
		errs = errors.Join(errs, fmt.Errorf("proximity filter cannot be negative, got %v", r.ProximityFilter))
	}

	return errs
}

// Identifier turns fractals and confluence zones into ranked trading levels.
type Identifier struct {
	cfg *IdentifierConfig
}

// NewIdentifier initializes a trading level identifier.
func NewIdentifier(cfg *IdentifierConfig) (*Identifier, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &Identifier{
		cfg: cfg,
	}, nil
}

// Identify builds trading levels from the request's fractals and zones.
// Fractals keep their best overlapping zone's score and tier. Fractals
// with no confluence survive only near the reference price. High tier
// zones left uncovered may be represented by synthetic levels, created
// only as far as the minimum coverage requires.
func (i *Identifier) Identify(req *Request) ([]*TradingLevel, error) {
	err := req.Validate()
	if err != nil {
		return nil, err
	}

	levels := make([]*TradingLevel, 0, len(req.Fractals))
	for idx := range req.Fractals {
		fractal := &req.Fractals[idx]

		overlaps := i.overlappingZones(fractal, req.Zones)
		if len(overlaps) == 0 && !i.nearReference(fractal.Price, req.ReferencePrice) {
			continue
		}

		levels = append(levels, i.levelFromFractal(fractal, overlaps, req.ReferencePrice))
	}

	if i.cfg.Logger != nil {
		i.cfg.Logger.Info().Msgf("created %d trading levels from %d fractals", len(levels), len(req.Fractals))
	}

	if req.ProximityFilter > 0 {
		maxDistancePercent := req.ProximityFilter / req.ReferencePrice * 100
		levels = filterByProximity(levels, maxDistancePercent)
	}

	levels = i.dedupe(levels)
	levels = i.ensureCoverage(levels, req)

	sortLevels(levels)

	return levels, nil
}

// overlappingZones finds the zones overlapping the provided fractal by at
// least the configured threshold, ordered best first.
func (i *Identifier) overlappingZones(fractal *Fractal, zones []*shared.Zone) []ZoneOverlap {
	high, low := fractal.Candle.High, fractal.Candle.Low
	if high == 0 && low == 0 {
		high, low = fractal.Price, fractal.Price
	}

	var overlaps []ZoneOverlap
	for _, zone := range zones {
		pct := candles.Overlap(high, low, zone.High, zone.Low)
		if pct < i.cfg.OverlapThreshold {
			continue
		}

		overlaps = append(overlaps, ZoneOverlap{
			ZoneID:         zone.ID,
			Score:          zone.Score,
			Tier:           zone.Tier,
			OverlapPercent: pct,
		})
	}

	sort.SliceStable(overlaps, func(a, b int) bool {
		if overlaps[a].OverlapPercent != overlaps[b].OverlapPercent {
			return overlaps[a].OverlapPercent > overlaps[b].OverlapPercent
		}
		return overlaps[a].Score > overlaps[b].Score
	})

	return overlaps
}

// nearReference checks whether a price is close enough to the reference
// price to keep without confluence backing.
func (i *Identifier) nearReference(price, referencePrice float64) bool {
	distancePercent := math.Abs(price-referencePrice) / referencePrice * 100
	return distancePercent <= i.cfg.NoConfluenceMaxDistance
}

// levelFromFractal builds a trading level from a fractal and its
// overlapping zones.
func (i *Identifier) levelFromFractal(fractal *Fractal, overlaps []ZoneOverlap, referencePrice float64) *TradingLevel {
	level := &TradingLevel{
		Timestamp: fractal.Candle.Date,
		Origin:    OriginFractal,
		High:      fractal.Candle.High,
		Low:       fractal.Candle.Low,
		Volume:    fractal.Candle.Volume,
		Overlaps:  overlaps,
		Kind:      shared.Support,
	}
	if fractal.High {
		level.Kind = shared.Resistance
	}
	if level.High == 0 && level.Low == 0 {
		level.High, level.Low = fractal.Price, fractal.Price
	}

	if len(overlaps) > 0 {
		level.Score = overlaps[0].Score
		level.Tier = overlaps[0].Tier
	}

	level.Distance = math.Abs(fractal.Price - referencePrice)
	level.DistancePercent = level.Distance / referencePrice * 100
	level.Priority = level.Score * (1 + proximityFactor(level.DistancePercent))

	return level
}

// levelFromZone builds a synthetic trading level centered on an uncovered
// zone, spanning one ATR to each side.
func (i *Identifier) levelFromZone(zone *shared.Zone, req *Request) *TradingLevel {
	center := (zone.High + zone.Low) / 2

	level := &TradingLevel{
		Timestamp: req.AnalysisTime,
		Origin:    OriginSynthetic,
		High:      center + req.ATR,
		Low:       center - req.ATR,
		Score:     zone.Score,
		Tier:      zone.Tier,
		Kind:      shared.Support,
		Overlaps: []ZoneOverlap{{
			ZoneID:         zone.ID,
			Score:          zone.Score,
			Tier:           zone.Tier,
			OverlapPercent: 1.0,
		}},
	}
	if center > req.ReferencePrice {
		level.Kind = shared.Resistance
	}

	level.Distance = math.Abs(center - req.ReferencePrice)
	level.DistancePercent = level.Distance / req.ReferencePrice * 100
	level.Priority = level.Score * (1 + proximityFactor(level.DistancePercent)) * syntheticBonus

	return level
}

// dedupe collapses levels at near identical prices, keeping the highest
// priority one from each group.
func (i *Identifier) dedupe(levels []*TradingLevel) []*TradingLevel {
	if len(levels) == 0 {
		return levels
	}

	byPrice := make([]*TradingLevel, len(levels))
	copy(byPrice, levels)
	sort.SliceStable(byPrice, func(a, b int) bool {
		return byPrice[a].Low < byPrice[b].Low
	})

	kept := make([]*TradingLevel, 0, len(byPrice))
	skip := make([]bool, len(byPrice))
	for a := range byPrice {
		if skip[a] {
			continue
		}

		best := byPrice[a]
		for b := a + 1; b < len(byPrice); b++ {
			if skip[b] {
				continue
			}

			other := byPrice[b]
			if other.Low > byPrice[a].High+i.cfg.DedupeThreshold {
				break
			}
			if math.Abs(byPrice[a].Low-other.Low) > i.cfg.DedupeThreshold {
				continue
			}

			skip[b] = true
			if other.Priority > best.Priority {
				best = other
			}
		}

		kept = append(kept, best)
	}

	return kept
}

// ensureCoverage tops up the level set with synthetic levels built from
// the best uncovered high tier zones until the minimum counts above and
// below the reference price are met.
func (i *Identifier) ensureCoverage(levels []*TradingLevel, req *Request) []*TradingLevel {
	above, below := 0, 0
	for _, level := range levels {
		switch {
		case level.Low > req.ReferencePrice:
			above++
		case level.High < req.ReferencePrice:
			below++
		}
	}

	if above < i.cfg.MinAbove {
		levels = i.fillSide(levels, req, i.cfg.MinAbove-above, true)
	}
	if below < i.cfg.MinBelow {
		levels = i.fillSide(levels, req, i.cfg.MinBelow-below, false)
	}

	return levels
}

// fillSide adds up to needed synthetic levels on one side of the
// reference price, drawing from uncovered zones of tier L3 and above,
// best score first.
func (i *Identifier) fillSide(levels []*TradingLevel, req *Request, needed int, above bool) []*TradingLevel {
	candidates := make([]*shared.Zone, 0, len(req.Zones))
	for _, zone := range req.Zones {
		if zone.Tier < syntheticTierFloor {
			continue
		}

		center := (zone.High + zone.Low) / 2
		if above != (center > req.ReferencePrice) {
			continue
		}

		candidates = append(candidates, zone)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})

	added := 0
	for _, zone := range candidates {
		if added >= needed {
			break
		}
		if i.covered(levels, zone, req.ATR) {
			continue
		}

		levels = append(levels, i.levelFromZone(zone, req))
		added++

		if i.cfg.Logger != nil {
			i.cfg.Logger.Info().Msgf("added synthetic %s level for %s zone %d",
				sideName(above), zone.Tier, zone.ID)
		}
	}

	return levels
}

// covered checks whether any existing level already represents the zone,
// either by overlap or by proximity to the zone center.
func (i *Identifier) covered(levels []*TradingLevel, zone *shared.Zone, atr float64) bool {
	center := (zone.High + zone.Low) / 2
	for _, level := range levels {
		if level.Covered(zone.ID) {
			return true
		}
		if math.Abs(level.Low-center) < atr*coveredDistanceATRMultiple ||
			math.Abs(level.High-center) < atr*coveredDistanceATRMultiple {
			return true
		}
	}

	return false
}

// proximityFactor maps a distance percentage to [0, 1], closer is higher.
func proximityFactor(distancePercent float64) float64 {
	return math.Max(0, proximityHorizonPercent-distancePercent) / proximityHorizonPercent
}

// filterByProximity keeps levels within the provided distance percentage.
func filterByProximity(levels []*TradingLevel, maxDistancePercent float64) []*TradingLevel {
	kept := levels[:0]
	for _, level := range levels {
		if level.DistancePercent <= maxDistancePercent {
			kept = append(kept, level)
		}
	}

	return kept
}

// sortLevels ranks levels by tier, then score, then proximity.
func sortLevels(levels []*TradingLevel) {
	sort.SliceStable(levels, func(a, b int) bool {
		if levels[a].Tier != levels[b].Tier {
			return levels[a].Tier > levels[b].Tier
		}
		if levels[a].Score != levels[b].Score {
			return levels[a].Score > levels[b].Score
		}
		return levels[a].DistancePercent < levels[b].DistancePercent
	})
}

// sideName stringifies a coverage side for logging.
func sideName(above bool) string {
	if above {
		return "resistance"
	}
	return "support"
}
