// Package confluence scores fixed target zones, Camarilla pivot bands or
// preset M15 zones, by checking which external levels and zones fall
// inside each of them.
package confluence

import (
	"errors"
	"fmt"
	"os"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"gopkg.in/yaml.v3"
)

const (
	// defaultSourceWeight is the weight for source kinds missing from the table.
	defaultSourceWeight = 1.0
	// defaultZoneBonus is the multiplier for zone-to-zone matches. Structural
	// agreement across ranges is stronger evidence than a point touch.
	defaultZoneBonus = 2.0
	// defaultMinZoneOverlap is the minimum overlap required of a zone source,
	// as a fraction of the target zone width.
	defaultMinZoneOverlap = 0.2
)

// Weights is the injectable scoring configuration for the fixed zone
// engine. Each source kind carries a fixed importance weight reflecting
// its typical multi day significance.
type Weights struct {
	// Sources maps source kinds to their importance weights.
	Sources map[shared.SourceKind]float64 `yaml:"sources"`
	// ZoneBonus multiplies contributions from ranged sources.
	ZoneBonus float64 `yaml:"zone_bonus"`
	// MinZoneOverlap is the minimum overlap fraction, relative to the
	// target zone width, for a ranged source to count.
	MinZoneOverlap float64 `yaml:"min_zone_overlap"`
}

// DefaultWeights returns the documented default weight table.
func DefaultWeights() *Weights {
	return &Weights{
		Sources: map[shared.SourceKind]float64{
			shared.CamMonthly:     10.0,
			shared.HVN30Day:       8.0,
			shared.HVN14Day:       6.0,
			shared.CamWeekly:      5.0,
			shared.WeeklyZone:     5.0,
			shared.HVN7Day:        4.0,
			shared.Fractal:        3.0,
			shared.DailyZone:      2.5,
			shared.CamDaily:       2.0,
			shared.ATRZone:        1.5,
			shared.DailyLevel:     1.0,
			shared.MarketStruct:   0.8,
			shared.ReferencePrice: 0.25,
		},
		ZoneBonus:      defaultZoneBonus,
		MinZoneOverlap: defaultMinZoneOverlap,
	}
}

// LoadWeights reads a weight table from the provided yaml file, filling
// unset knobs from the defaults.
func LoadWeights(path string) (*Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weights file: %w", err)
	}

	weights := &Weights{}
	err = yaml.Unmarshal(data, weights)
	if err != nil {
		return nil, fmt.Errorf("parsing weights file: %w", err)
	}

	if weights.ZoneBonus == 0 {
		weights.ZoneBonus = defaultZoneBonus
	}
	if weights.MinZoneOverlap == 0 {
		weights.MinZoneOverlap = defaultMinZoneOverlap
	}

	err = weights.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating weights file: %w", err)
	}

	return weights, nil
}

// Validate asserts the weights describe a sane scoring scheme.
func (w *Weights) Validate() error {
	var errs error

	for kind, weight := range w.Sources {
		if weight <= 0 {
			errs = errors.Join(errs, fmt.Errorf("source %s: weight must be positive, got %v", kind, weight))
		}
	}
	if w.ZoneBonus <= 0 {
		errs = errors.Join(errs, fmt.Errorf("zone bonus must be positive, got %v", w.ZoneBonus))
	}
	if w.MinZoneOverlap < 0 || w.MinZoneOverlap > 1 {
		errs = errors.Join(errs, fmt.Errorf("minimum zone overlap must be within [0, 1], got %v", w.MinZoneOverlap))
	}

	return errs
}

// Weight returns the importance weight for the provided source kind.
func (w *Weights) Weight(kind shared.SourceKind) float64 {
	weight, ok := w.Sources[kind]
	if !ok {
		return defaultSourceWeight
	}

	return weight
}
