// Package identify matches fractal swing candles against discovered
// confluence zones and produces the ranked trading levels a session
// plan is built from.
package identify

import (
	"time"

	"github.com/XIIITrading/Meridian-sub001/shared"
)

// LevelOrigin describes how a trading level came to exist.
type LevelOrigin int

const (
	// OriginFractal marks a level built from an actual swing candle.
	OriginFractal LevelOrigin = iota
	// OriginSynthetic marks a placeholder level manufactured from a high
	// confidence zone that no fractal covered.
	OriginSynthetic
)

// String stringifies the provided level origin.
func (o LevelOrigin) String() string {
	switch o {
	case OriginFractal:
		return "fractal"
	case OriginSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// Fractal represents a swing high or swing low candle produced by a
// fractal detector.
type Fractal struct {
	// Price is the swing extreme.
	Price float64
	// Candle is the bar the swing formed on.
	Candle shared.Candlestick
	// High marks the fractal as a swing high rather than a swing low.
	High bool
}

// ZoneOverlap records a zone a trading level overlaps with.
type ZoneOverlap struct {
	// ZoneID identifies the overlapped zone.
	ZoneID int
	// Score is the zone's confluence score.
	Score float64
	// Tier is the zone's confidence tier.
	Tier shared.Tier
	// OverlapPercent is the fraction of the level's range inside the zone.
	OverlapPercent float64
}

// TradingLevel is a tradeable price level, either a confluence backed
// fractal or a synthetic placeholder for an uncovered zone.
type TradingLevel struct {
	// Timestamp is the time the level formed.
	Timestamp time.Time
	// Kind marks the level as support or resistance.
	Kind shared.ZoneKind
	// Origin describes whether the level came from a fractal or was
	// synthesized from a zone.
	Origin LevelOrigin
	// High is the upper bound of the level's price range.
	High float64
	// Low is the lower bound of the level's price range.
	Low float64
	// Volume is the volume on the level's candle, zero for synthetic levels.
	Volume float64
	// Score is the confluence score inherited from the best overlapped zone.
	Score float64
	// Tier is the tier inherited from the best overlapped zone.
	Tier shared.Tier
	// Overlaps are the zones the level overlaps, best first.
	Overlaps []ZoneOverlap
	// Distance is the absolute price distance from the reference price.
	Distance float64
	// DistancePercent is the distance as a percentage of the reference price.
	DistancePercent float64
	// Priority combines confluence and proximity for ranking.
	Priority float64
}

// Covered reports whether the level overlaps the zone with the provided id.
func (l *TradingLevel) Covered(zoneID int) bool {
	for idx := range l.Overlaps {
		if l.Overlaps[idx].ZoneID == zoneID {
			return true
		}
	}

	return false
}
