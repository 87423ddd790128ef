// Package discovery turns a flat set of confluence items into a ranked
// list of scored zones.
package discovery

import (
	"fmt"
	"sort"

	"github.com/XIIITrading/Meridian-sub001/shared"
)

const (
	// defaultIdenticalThreshold is the default price tolerance for grouping
	// items at essentially the same level.
	defaultIdenticalThreshold = 0.10
)

// ClusterConfig selects one of three mutually exclusive clustering modes.
// With both flags unset every item becomes its own zone; with only
// MergeIdentical set items group by near identical center price; with
// MergeOverlapping set geometrically overlapping items merge.
type ClusterConfig struct {
	// MergeOverlapping merges items whose price intervals overlap.
	MergeOverlapping bool
	// MergeIdentical merges items whose centers fall within the identical
	// price threshold.
	MergeIdentical bool
	// IdenticalThreshold overrides the identical price tolerance, in
	// currency units. Zero uses the default of 0.10.
	IdenticalThreshold float64
}

// threshold returns the configured identical price tolerance.
func (cfg *ClusterConfig) threshold() float64 {
	if cfg.IdenticalThreshold > 0 {
		return cfg.IdenticalThreshold
	}

	return defaultIdenticalThreshold
}

// Cluster groups the provided confluence items into zones under the
// configured mode. Malformed items are rejected rather than silently
// collapsed into degenerate zones.
func Cluster(items []shared.ConfluenceItem, referencePrice float64, cfg *ClusterConfig) ([]*shared.Zone, error) {
	for idx := range items {
		if err := items[idx].Validate(); err != nil {
			return nil, fmt.Errorf("clustering: %w", err)
		}
	}

	switch {
	case !cfg.MergeOverlapping && !cfg.MergeIdentical:
		return individualZones(items, referencePrice)
	case cfg.MergeIdentical && !cfg.MergeOverlapping:
		return mergeIdentical(items, referencePrice, cfg.threshold())
	default:
		return mergeOverlapping(items, referencePrice)
	}
}

// individualZones creates one singleton zone per item, in input order.
func individualZones(items []shared.ConfluenceItem, referencePrice float64) ([]*shared.Zone, error) {
	zones := make([]*shared.Zone, 0, len(items))
	for idx := range items {
		low, high := items[idx].Bounds()

		zone, err := shared.NewZone(idx+1, low, high, items[idx].Center, referencePrice,
			[]shared.ConfluenceItem{items[idx]})
		if err != nil {
			return nil, err
		}

		zones = append(zones, zone)
	}

	return zones, nil
}

// group tracks an identical price cluster during the first fit scan.
type group struct {
	anchor  float64
	members []shared.ConfluenceItem
}

// mergeIdentical groups items whose centers fall within the threshold of
// an existing group's anchor price. The scan is first fit in insertion
// order: an item joins the first group found within tolerance.
func mergeIdentical(items []shared.ConfluenceItem, referencePrice, threshold float64) ([]*shared.Zone, error) {
	groups := make([]*group, 0, len(items))

	for idx := range items {
		item := items[idx]

		var joined bool
		for _, grp := range groups {
			distance := item.Center - grp.anchor
			if distance < 0 {
				distance = -distance
			}

			if distance <= threshold {
				grp.members = append(grp.members, item)
				joined = true
				break
			}
		}

		if !joined {
			groups = append(groups, &group{anchor: item.Center, members: []shared.ConfluenceItem{item}})
		}
	}

	zones := make([]*shared.Zone, 0, len(groups))
	for idx, grp := range groups {
		low, high := grp.members[0].Bounds()
		var centerSum float64

		for mIdx := range grp.members {
			mLow, mHigh := grp.members[mIdx].Bounds()
			low = min(low, mLow)
			high = max(high, mHigh)
			centerSum += grp.members[mIdx].Center
		}

		center := centerSum / float64(len(grp.members))
		zone, err := shared.NewZone(idx+1, low, high, center, referencePrice, grp.members)
		if err != nil {
			return nil, err
		}

		zones = append(zones, zone)
	}

	return zones, nil
}

// cluster tracks a running overlap cluster during the left to right pass.
type cluster struct {
	low     float64
	high    float64
	members []shared.ConfluenceItem
}

// mergeOverlapping sorts items ascending by center price and absorbs each
// into the first cluster whose running bounds geometrically overlap the
// item's interval. Absorption is evaluated against running bounds that
// expand as items join, so the grouping of adjacent but not mutually
// overlapping items depends on iteration order. That order, ascending by
// center price, is the defined contract of this mode.
func mergeOverlapping(items []shared.ConfluenceItem, referencePrice float64) ([]*shared.Zone, error) {
	sorted := make([]shared.ConfluenceItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Center < sorted[j].Center
	})

	clusters := make([]*cluster, 0, len(sorted))
	for idx := range sorted {
		item := sorted[idx]
		itemLow, itemHigh := item.Bounds()

		var merged bool
		for _, cl := range clusters {
			if itemLow <= cl.high && itemHigh >= cl.low {
				cl.members = append(cl.members, item)
				cl.low = min(cl.low, itemLow)
				cl.high = max(cl.high, itemHigh)
				merged = true
				break
			}
		}

		if !merged {
			clusters = append(clusters, &cluster{low: itemLow, high: itemHigh,
				members: []shared.ConfluenceItem{item}})
		}
	}

	zones := make([]*shared.Zone, 0, len(clusters))
	for idx, cl := range clusters {
		var weightedSum, totalWeight float64
		for mIdx := range cl.members {
			strength := cl.members[mIdx].EffectiveStrength()
			weightedSum += cl.members[mIdx].Center * strength
			totalWeight += strength
		}

		center := (cl.high + cl.low) / 2
		if totalWeight > 0 {
			center = weightedSum / totalWeight
		}

		zone, err := shared.NewZone(idx+1, cl.low, cl.high, center, referencePrice, cl.members)
		if err != nil {
			return nil, err
		}

		zones = append(zones, zone)
	}

	return zones, nil
}
