package confluence

import (
	"errors"
	"fmt"
	"sort"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/rs/zerolog"
)

// Result describes the outcome of a confluence calculation across a set
// of fixed zones.
type Result struct {
	// Zones are the evaluated zones, in the order they were provided.
	Zones []*FixedZone
	// TotalSourcesChecked is the number of source kinds consulted.
	TotalSourcesChecked int
	// ZonesWithConfluence is the number of zones with at least one member.
	ZonesWithConfluence int
	// HighestZone is the zone with the highest score, nil when no zone
	// accumulated any confluence.
	HighestZone *FixedZone
	// SourceSummary tallies matched items per source kind.
	SourceSummary map[shared.SourceKind]int
}

// EngineConfig is the configuration for the confluence engine.
type EngineConfig struct {
	// Weights is the scoring weight table. Defaults are applied when nil.
	Weights *Weights
	// TierStrategy converts an accumulated score into a tier. Defaults to
	// weighted score thresholds.
	TierStrategy shared.TierStrategy
	// Logger is the engine logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane defaults are set.
func (cfg *EngineConfig) Validate() error {
	var errs error

	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	if err := cfg.Weights.Validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	if cfg.TierStrategy == nil {
		cfg.TierStrategy = shared.TierByWeightedScore
	}

	return errs
}

// Engine accumulates weighted confluence score on fixed zones from a set
// of external sources.
type Engine struct {
	cfg *EngineConfig
}

// NewEngine initializes the confluence engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg: cfg,
	}, nil
}

// Calculate evaluates the provided sources against the provided zones.
// Each matched item contributes its strength scaled by the source kind
// weight, with ranged items further scaled by the zone bonus. Zone tiers
// are recomputed after every addition.
func (e *Engine) Calculate(zones []*FixedZone, sources map[shared.SourceKind][]shared.ConfluenceItem) (*Result, error) {
	result := &Result{
		Zones:               zones,
		TotalSourcesChecked: len(sources),
		SourceSummary:       make(map[shared.SourceKind]int),
	}

	if len(zones) == 0 {
		return result, nil
	}

	for kind, items := range sources {
		for idx := range items {
			item := items[idx]
			if err := item.Validate(); err != nil {
				return nil, fmt.Errorf("validating %s item %s: %w", kind, item.Name, err)
			}

			for _, zone := range zones {
				if !zone.SourceEnabled(kind) {
					continue
				}

				if !e.matches(zone, &item) {
					continue
				}

				e.apply(zone, kind, &item)
				result.SourceSummary[kind]++
			}
		}
	}

	for _, zone := range zones {
		if len(zone.Members) == 0 {
			continue
		}

		result.ZonesWithConfluence++
		if result.HighestZone == nil || zone.Score > result.HighestZone.Score {
			result.HighestZone = zone
		}
	}

	if e.cfg.Logger != nil {
		e.cfg.Logger.Info().Msgf("calculated confluences for %d zones from %d sources, %d with confluence",
			len(zones), result.TotalSourcesChecked, result.ZonesWithConfluence)
	}

	return result, nil
}

// matches checks whether the provided item geometrically matches the zone.
// Point items must fall inside the zone, ranged items must overlap it by
// at least the configured minimum fraction of the zone's width.
func (e *Engine) matches(zone *FixedZone, item *shared.ConfluenceItem) bool {
	if item.IsZone() {
		low, high := item.Bounds()
		return zone.OverlapsZone(low, high, e.cfg.Weights.MinZoneOverlap)
	}

	return zone.ContainsPrice(item.Center)
}

// apply adds the provided item to the zone and updates its score and tier.
func (e *Engine) apply(zone *FixedZone, kind shared.SourceKind, item *shared.ConfluenceItem) {
	contribution := item.EffectiveStrength() * e.cfg.Weights.Weight(kind)
	if item.IsZone() {
		contribution *= e.cfg.Weights.ZoneBonus
	}

	zone.Members = append(zone.Members, *item)
	zone.Score += contribution
	zone.Tier = e.cfg.TierStrategy(len(zone.Members), zone.Score)
}

// RankedZones returns the result's zones ordered by score, highest first.
// Ties keep the input zone order.
func (r *Result) RankedZones() []*FixedZone {
	ranked := make([]*FixedZone, len(r.Zones))
	copy(ranked, r.Zones)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}
