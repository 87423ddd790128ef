package discovery

import (
	"math"
	"testing"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/peterldowns/testy/assert"
)

func newScoredZone(t *testing.T, members []shared.ConfluenceItem) *shared.Zone {
	t.Helper()

	low, high := members[0].Bounds()
	for idx := range members {
		mLow, mHigh := members[idx].Bounds()
		low = min(low, mLow)
		high = max(high, mHigh)
	}

	zone, err := shared.NewZone(1, low, high, members[0].Center, 95, members)
	assert.NoError(t, err)
	return zone
}

func TestScorerDiversityBonus(t *testing.T) {
	// Two hvn members and one camarilla member: two unique kinds, so the
	// diversity bonus is 1.1.
	members := []shared.ConfluenceItem{
		{Name: "Peak_1", Center: 100, Kind: shared.HVN30Day},
		{Name: "Peak_2", Center: 100.2, Kind: shared.HVN30Day},
		{Name: "R3", Center: 100.4, Kind: shared.CamDaily},
	}

	zone := newScoredZone(t, members)
	scorer := NewScorer(&ScorerConfig{})

	score, tier := scorer.Score(zone)

	// base 3*2.0, strength multiplier 1.0/5.0, diversity 1.1, recency 1.0.
	want := 6.0 * 0.2 * 1.1
	if math.Abs(score-want) > 1e-9 {
		t.Errorf("expected score %v, got %v", want, score)
	}
	assert.Equal(t, tier, shared.L1)
	assert.Equal(t, zone.Score, score)
	assert.Equal(t, zone.Tier, tier)
}

func TestScorerStrengthMultiplier(t *testing.T) {
	strong := []shared.ConfluenceItem{
		{Name: "Peak_1", Center: 100, Kind: shared.HVN30Day, Strength: 10},
		{Name: "Peak_2", Center: 100.2, Kind: shared.HVN30Day, Strength: 10},
	}

	zone := newScoredZone(t, strong)
	scorer := NewScorer(&ScorerConfig{})

	score, _ := scorer.Score(zone)

	// base 2*2.0, strength multiplier 10/5, single kind, recency 1.0.
	assert.Equal(t, score, 8.0)
}

func TestScorerMonotonicInMembers(t *testing.T) {
	scorer := NewScorer(&ScorerConfig{})

	var prevScore float64
	prevTier := shared.L0

	members := []shared.ConfluenceItem{}
	for idx := 0; idx < 12; idx++ {
		members = append(members, shared.ConfluenceItem{
			Name:   "Peak",
			Center: 100 + float64(idx)*0.01,
			Kind:   shared.HVN30Day,
		})

		zone := newScoredZone(t, members)
		score, tier := scorer.Score(zone)
		if score < prevScore {
			t.Errorf("score decreased from %v to %v at %d members", prevScore, score, len(members))
		}
		if tier < prevTier {
			t.Errorf("tier decreased from %v to %v at %d members", prevTier, tier, len(members))
		}

		prevScore, prevTier = score, tier
	}
}

func TestScorerTierByCountThresholds(t *testing.T) {
	scorer := NewScorer(&ScorerConfig{})

	tests := []struct {
		name  string
		count int
		want  shared.Tier
	}{
		{"two members", 2, shared.L1},
		{"four members", 4, shared.L2},
		{"six members", 6, shared.L3},
		{"eight members", 8, shared.L4},
		{"ten members", 10, shared.L5},
	}

	for _, test := range tests {
		members := make([]shared.ConfluenceItem, 0, test.count)
		for idx := 0; idx < test.count; idx++ {
			members = append(members, shared.ConfluenceItem{
				Name:   "lvl",
				Center: 100 + float64(idx)*0.01,
				Kind:   shared.DailyLevel,
			})
		}

		zone := newScoredZone(t, members)
		_, tier := scorer.Score(zone)
		if tier != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, tier)
		}
	}
}

func TestScorerRecencyMultiplier(t *testing.T) {
	members := []shared.ConfluenceItem{
		{Name: "Peak_1", Center: 100, Kind: shared.HVN30Day},
		{Name: "R3", Center: 100.2, Kind: shared.CamDaily},
	}

	zone := newScoredZone(t, members)
	scorer := NewScorer(&ScorerConfig{})

	base, _ := scorer.Score(zone)

	zone.RecencyScore = 1.2
	boosted, _ := scorer.Score(zone)

	if math.Abs(boosted-base*1.2) > 1e-9 {
		t.Errorf("expected boosted score %v, got %v", base*1.2, boosted)
	}
}
