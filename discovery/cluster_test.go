package discovery

import (
	"testing"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

func TestClusterNoMergeIdempotent(t *testing.T) {
	items := []shared.ConfluenceItem{
		{Name: "Peak_1", Center: 100, Kind: shared.HVN30Day},
		{Name: "R3", Center: 100.05, Kind: shared.CamDaily},
		{Name: "WZ1", Center: 103, Low: shared.FloatPtr(102), High: shared.FloatPtr(104), Kind: shared.WeeklyZone},
	}

	cfg := &ClusterConfig{}

	// Ensure every item becomes its own singleton zone regardless of order.
	zones, err := Cluster(items, 101, cfg)
	assert.NoError(t, err)
	assert.Equal(t, len(zones), len(items))
	for idx := range zones {
		assert.Equal(t, len(zones[idx].Members), 1)
	}

	reversed := []shared.ConfluenceItem{items[2], items[1], items[0]}
	zones, err = Cluster(reversed, 101, cfg)
	assert.NoError(t, err)
	assert.Equal(t, len(zones), len(items))

	// Ranged items carry their declared bounds, point items collapse.
	assert.Equal(t, zones[0].Low, float64(102))
	assert.Equal(t, zones[0].High, float64(104))
	assert.Equal(t, zones[1].Width, 0.0)
}

func TestClusterMergeIdentical(t *testing.T) {
	items := []shared.ConfluenceItem{
		{Name: "hvn", Center: 100, Kind: shared.HVN30Day},
		{Name: "cam", Center: 100.05, Kind: shared.CamDaily},
	}

	cfg := &ClusterConfig{MergeIdentical: true}

	// Ensure the two near identical levels merge into a single zone with
	// min/max bounds and a mean center, independent of input order.
	zones, err := Cluster(items, 99, cfg)
	assert.NoError(t, err)
	assert.Equal(t, len(zones), 1)
	assert.Equal(t, zones[0].Low, float64(100))
	assert.Equal(t, zones[0].High, 100.05)
	assert.Equal(t, zones[0].Center, 100.025)
	assert.Equal(t, len(zones[0].Members), 2)

	swapped, err := Cluster([]shared.ConfluenceItem{items[1], items[0]}, 99, cfg)
	assert.NoError(t, err)
	assert.Equal(t, len(swapped), 1)
	assert.Equal(t, swapped[0].Low, zones[0].Low)
	assert.Equal(t, swapped[0].High, zones[0].High)
	assert.Equal(t, swapped[0].Center, zones[0].Center)
}

func TestClusterMergeIdenticalFirstFit(t *testing.T) {
	// Three items stepping 0.08 apart: the second joins the first group
	// (within 0.10 of its anchor), the third starts a new group because it
	// is 0.16 from the first anchor. First fit, not nearest fit.
	items := []shared.ConfluenceItem{
		{Name: "a", Center: 100, Kind: shared.DailyLevel},
		{Name: "b", Center: 100.08, Kind: shared.DailyLevel},
		{Name: "c", Center: 100.16, Kind: shared.DailyLevel},
	}

	zones, err := Cluster(items, 99, &ClusterConfig{MergeIdentical: true})
	assert.NoError(t, err)
	assert.Equal(t, len(zones), 2)
	assert.Equal(t, len(zones[0].Members), 2)
	assert.Equal(t, len(zones[1].Members), 1)
}

func TestClusterMergeOverlappingChained(t *testing.T) {
	// Chained overlap: [98,99], [99,100], [99.5,101] collapse into one
	// zone spanning [98,101] because the cluster bounds expand as items join.
	items := []shared.ConfluenceItem{
		{Name: "a", Center: 98.5, Low: shared.FloatPtr(98), High: shared.FloatPtr(99), Kind: shared.WeeklyZone},
		{Name: "b", Center: 99.5, Low: shared.FloatPtr(99), High: shared.FloatPtr(100), Kind: shared.DailyZone},
		{Name: "c", Center: 100.25, Low: shared.FloatPtr(99.5), High: shared.FloatPtr(101), Kind: shared.ATRZone},
	}

	zones, err := Cluster(items, 99, &ClusterConfig{MergeOverlapping: true})
	assert.NoError(t, err)
	assert.Equal(t, len(zones), 1)
	assert.Equal(t, zones[0].Low, float64(98))
	assert.Equal(t, zones[0].High, float64(101))
	assert.Equal(t, len(zones[0].Members), 3)
}

func TestClusterMergeOverlappingWeightedCenter(t *testing.T) {
	items := []shared.ConfluenceItem{
		{Name: "weak", Center: 99, Low: shared.FloatPtr(98.5), High: shared.FloatPtr(99.5), Kind: shared.DailyZone, Strength: 1},
		{Name: "strong", Center: 100, Low: shared.FloatPtr(99.4), High: shared.FloatPtr(100.5), Kind: shared.WeeklyZone, Strength: 3},
	}

	zones, err := Cluster(items, 95, &ClusterConfig{MergeOverlapping: true})
	assert.NoError(t, err)
	assert.Equal(t, len(zones), 1)

	// Strength weighted center: (99*1 + 100*3) / 4.
	assert.Equal(t, zones[0].Center, 99.75)
	assert.Equal(t, zones[0].Low, 98.5)
	assert.Equal(t, zones[0].High, 100.5)
}

func TestClusterMergeOverlappingDisjoint(t *testing.T) {
	items := []shared.ConfluenceItem{
		{Name: "a", Center: 98.5, Low: shared.FloatPtr(98), High: shared.FloatPtr(99), Kind: shared.WeeklyZone},
		{Name: "b", Center: 103, Low: shared.FloatPtr(102.5), High: shared.FloatPtr(103.5), Kind: shared.DailyZone},
	}

	zones, err := Cluster(items, 99, &ClusterConfig{MergeOverlapping: true})
	assert.NoError(t, err)
	assert.Equal(t, len(zones), 2)

	ids := []int{zones[0].ID, zones[1].ID}
	if diff := cmp.Diff(ids, []int{1, 2}); diff != "" {
		t.Errorf("unexpected zone ids (-got +want):\n%s", diff)
	}
}

func TestClusterRejectsMalformedItems(t *testing.T) {
	items := []shared.ConfluenceItem{
		{Name: "ok", Center: 100, Kind: shared.DailyLevel},
		{Name: "inverted", Center: 100, Low: shared.FloatPtr(101), High: shared.FloatPtr(99), Kind: shared.WeeklyZone},
	}

	for _, cfg := range []*ClusterConfig{
		{},
		{MergeIdentical: true},
		{MergeOverlapping: true},
	} {
		_, err := Cluster(items, 99, cfg)
		assert.Error(t, err)
	}
}

func TestClusterZoneKindAssignment(t *testing.T) {
	items := []shared.ConfluenceItem{
		{Name: "below", Center: 95, Kind: shared.DailyLevel},
		{Name: "above", Center: 105, Kind: shared.DailyLevel},
	}

	zones, err := Cluster(items, 100, &ClusterConfig{})
	assert.NoError(t, err)
	assert.Equal(t, zones[0].Kind, shared.Support)
	assert.Equal(t, zones[1].Kind, shared.Resistance)
}
