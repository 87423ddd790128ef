package shared

import (
	"fmt"
)

// ZoneKind represents the type of zone relative to the reference price.
type ZoneKind int

const (
	Support ZoneKind = iota
	Resistance
)

// String stringifies the provided zone kind.
func (z ZoneKind) String() string {
	switch z {
	case Support:
		return "support"
	case Resistance:
		return "resistance"
	default:
		return "unknown"
	}
}

// Zone represents a clustered confluence price region. Zones are created
// once per discovery run by the clustering pass, scored in place by the
// scorer and enriched with a best candle by the candle selector. They are
// never merged after creation.
type Zone struct {
	// ID is the zone identifier, stable within one discovery run.
	ID int
	// Low is the lower bound of the zone.
	Low float64
	// High is the upper bound of the zone.
	High float64
	// Center is the representative price of the zone.
	Center float64
	// Width is the zone's price span.
	Width float64
	// Kind marks the zone as support or resistance relative to the
	// reference price.
	Kind ZoneKind
	// Members are the confluence items backing the zone, in cluster order.
	Members []ConfluenceItem
	// Score is the zone's confluence score.
	Score float64
	// Tier is the zone's confidence tier, always recomputed from the
	// members or score.
	Tier Tier
	// Distance is the absolute distance of the center from the reference price.
	Distance float64
	// DistancePercent is the distance as a percentage of the reference price.
	DistancePercent float64
	// BestCandle is the best representative historical candle, when one exists.
	BestCandle *ScoredCandle
	// RecencyScore boosts the confluence score for recently touched zones.
	RecencyScore float64
}

// NewZone initializes a zone from clustered members, deriving its kind and
// distance metrics from the reference price. Malformed bounds are rejected
// here, a cluster must never silently collapse into an inverted zone.
func NewZone(id int, low, high, center, referencePrice float64, members []ConfluenceItem) (*Zone, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("zone %d: no members provided", id)
	}
	if high < low {
		return nil, fmt.Errorf("zone %d: high %v below low %v (item %q)", id, high, low, members[0].Name)
	}
	if high == low {
		// A zero width zone is only valid for a lone point level.
		for idx := range members {
			if members[idx].IsZone() {
				return nil, fmt.Errorf("zone %d: degenerate bounds from ranged item %q", id, members[idx].Name)
			}
		}
	}
	if center < low || center > high {
		return nil, fmt.Errorf("zone %d: center %v outside bounds [%v, %v]", id, center, low, high)
	}

	kind := Support
	if center > referencePrice {
		kind = Resistance
	}

	distance := center - referencePrice
	if distance < 0 {
		distance = -distance
	}

	zone := &Zone{
		ID:              id,
		Low:             low,
		High:            high,
		Center:          center,
		Width:           high - low,
		Kind:            kind,
		Members:         members,
		Distance:        distance,
		DistancePercent: distance / referencePrice * 100,
		RecencyScore:    1.0,
	}

	return zone, nil
}

// UniqueKinds returns the number of distinct source kinds among the
// zone's members.
func (z *Zone) UniqueKinds() int {
	kinds := make(map[SourceKind]struct{}, len(z.Members))
	for idx := range z.Members {
		kinds[z.Members[idx].Kind] = struct{}{}
	}

	return len(kinds)
}

// AverageStrength returns the unweighted mean strength of the zone's members.
func (z *Zone) AverageStrength() float64 {
	var sum float64
	for idx := range z.Members {
		sum += z.Members[idx].EffectiveStrength()
	}

	return sum / float64(len(z.Members))
}
