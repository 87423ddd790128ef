package confluence

import (
	"fmt"
	"strings"

	"github.com/XIIITrading/Meridian-sub001/shared"
)

// FixedZone represents a preset target zone, a Camarilla pivot band or an
// M15 zone, keyed by its level name rather than a generated id. External
// levels and zones are checked against it and accumulate weighted score.
type FixedZone struct {
	// LevelName identifies the zone, eg. "R6" or "Zone_1".
	LevelName string
	// PivotPrice is the anchor price the zone was built around.
	PivotPrice float64
	// Low is the lower bound of the zone.
	Low float64
	// High is the upper bound of the zone.
	High float64
	// Width is the zone's price span.
	Width float64
	// Members are the confluence sources matched against the zone so far.
	Members []shared.ConfluenceItem
	// Score is the accumulated weighted confluence score.
	Score float64
	// Tier is recomputed from the score after every addition.
	Tier shared.Tier

	// disabled holds the source kinds excluded from contributing to this
	// zone. Disabled kinds are skipped entirely, never scored then discarded.
	disabled map[shared.SourceKind]bool
}

// NewFixedZone initializes a fixed zone centered on the provided pivot
// price with the provided half width, typically the 5 minute ATR.
func NewFixedZone(levelName string, pivotPrice, halfWidth float64) (*FixedZone, error) {
	if pivotPrice <= 0 {
		return nil, fmt.Errorf("fixed zone %s: pivot price must be positive, got %v", levelName, pivotPrice)
	}
	if halfWidth <= 0 {
		return nil, fmt.Errorf("fixed zone %s: half width must be positive, got %v", levelName, halfWidth)
	}

	zone := &FixedZone{
		LevelName:  levelName,
		PivotPrice: pivotPrice,
		Low:        pivotPrice - halfWidth,
		High:       pivotPrice + halfWidth,
		Width:      2 * halfWidth,
		Tier:       shared.L1,
	}

	return zone, nil
}

// NewFixedZoneFromBounds initializes a fixed zone from explicit bounds,
// used for preset M15 zones.
func NewFixedZoneFromBounds(levelName string, low, high float64) (*FixedZone, error) {
	if high <= low {
		return nil, fmt.Errorf("fixed zone %s: high %v must be above low %v", levelName, high, low)
	}

	zone := &FixedZone{
		LevelName:  levelName,
		PivotPrice: (high + low) / 2,
		Low:        low,
		High:       high,
		Width:      high - low,
		Tier:       shared.L1,
	}

	return zone, nil
}

// Center returns the zone's center price.
func (z *FixedZone) Center() float64 {
	return (z.High + z.Low) / 2
}

// IsResistance reports whether the zone is a resistance band, by pivot
// level naming convention.
func (z *FixedZone) IsResistance() bool {
	return strings.HasPrefix(z.LevelName, "R")
}

// IsSupport reports whether the zone is a support band, by pivot level
// naming convention.
func (z *FixedZone) IsSupport() bool {
	return strings.HasPrefix(z.LevelName, "S")
}

// SetSourceEnabled toggles whether the provided source kind may contribute
// to this zone. All kinds are enabled by default.
func (z *FixedZone) SetSourceEnabled(kind shared.SourceKind, enabled bool) {
	if z.disabled == nil {
		z.disabled = make(map[shared.SourceKind]bool)
	}

	z.disabled[kind] = !enabled
}

// SourceEnabled reports whether the provided source kind may contribute.
func (z *FixedZone) SourceEnabled(kind shared.SourceKind) bool {
	return !z.disabled[kind]
}

// ContainsPrice checks whether a price falls within the zone.
func (z *FixedZone) ContainsPrice(price float64) bool {
	return z.Low <= price && price <= z.High
}

// OverlapsZone checks whether the provided interval overlaps this zone by
// at least the provided fraction of this zone's width.
func (z *FixedZone) OverlapsZone(low, high, minOverlap float64) bool {
	overlapLow := max(z.Low, low)
	overlapHigh := min(z.High, high)
	if overlapHigh <= overlapLow {
		return false
	}

	return (overlapHigh-overlapLow)/z.Width >= minOverlap
}
