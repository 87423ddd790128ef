package shared

import (
	"fmt"
	"time"
)

const (
	// defaultStrength is the strength assigned to items that do not declare one.
	defaultStrength = 1.0
)

// ConfluenceItem represents one technical level or zone produced by an
// indicator source, normalized for the clustering and scoring engines.
// A point level leaves Low and High unset, its bounds collapse to Center.
type ConfluenceItem struct {
	// Name identifies the level, eg. "Peak_1" or "R3".
	Name string
	// Center is the price of the level, or the midpoint for a ranged zone.
	Center float64
	// Low is the optional lower bound of the item.
	Low *float64
	// High is the optional upper bound of the item.
	High *float64
	// Kind is the source that produced the item.
	Kind SourceKind
	// Strength is the item's relative strength, defaulting to 1.0 when unset.
	Strength float64
	// Timestamp is the optional time the level formed.
	Timestamp time.Time
}

// Validate asserts the item describes a sane price region.
func (c *ConfluenceItem) Validate() error {
	if c.Center <= 0 {
		return fmt.Errorf("confluence item %q: center price must be positive, got %v", c.Name, c.Center)
	}
	if c.Low != nil && c.High != nil && *c.High < *c.Low {
		return fmt.Errorf("confluence item %q: high %v below low %v", c.Name, *c.High, *c.Low)
	}

	return nil
}

// Bounds returns the item's price interval, collapsing to the center price
// for point levels.
func (c *ConfluenceItem) Bounds() (float64, float64) {
	low, high := c.Center, c.Center
	if c.Low != nil {
		low = *c.Low
	}
	if c.High != nil {
		high = *c.High
	}

	return low, high
}

// IsZone reports whether the item spans a price range rather than a point.
func (c *ConfluenceItem) IsZone() bool {
	low, high := c.Bounds()
	return high > low
}

// EffectiveStrength returns the item's strength, substituting the default
// when none was declared.
func (c *ConfluenceItem) EffectiveStrength() float64 {
	if c.Strength <= 0 {
		return defaultStrength
	}

	return c.Strength
}

// FloatPtr returns a pointer to the provided float, a convenience for
// building ranged items.
func FloatPtr(v float64) *float64 {
	return &v
}
