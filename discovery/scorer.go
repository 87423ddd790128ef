package discovery

import (
	"github.com/XIIITrading/Meridian-sub001/shared"
)

const (
	// baseScorePerMember is the base contribution of each zone member.
	baseScorePerMember = 2.0
	// strengthDivisor normalizes average member strength into a multiplier.
	strengthDivisor = 5.0
	// diversityStep is the score bonus per extra distinct source kind.
	diversityStep = 0.1
)

// ScorerConfig represents the configuration for the confluence scorer.
type ScorerConfig struct {
	// TierStrategy maps the scored zone to a confidence tier. Defaults to
	// member count based tiering.
	TierStrategy shared.TierStrategy
}

// Scorer computes confluence scores and tiers for discovered zones.
type Scorer struct {
	cfg *ScorerConfig
}

// NewScorer initializes a new confluence scorer.
func NewScorer(cfg *ScorerConfig) *Scorer {
	if cfg.TierStrategy == nil {
		cfg.TierStrategy = shared.TierByMemberCount
	}

	return &Scorer{
		cfg: cfg,
	}
}

// Score computes the zone's confluence score and tier and writes both
// onto the zone. The formula is monotonic non decreasing in member count,
// so rescoring after adding members never lowers a zone.
func (s *Scorer) Score(zone *shared.Zone) (float64, shared.Tier) {
	base := float64(len(zone.Members)) * baseScorePerMember

	strengthMultiplier := 1.0
	if avg := zone.AverageStrength(); avg > 0 {
		strengthMultiplier = avg / strengthDivisor
	}

	diversityBonus := 1.0 + float64(zone.UniqueKinds()-1)*diversityStep

	score := base * strengthMultiplier * diversityBonus * zone.RecencyScore
	tier := s.cfg.TierStrategy(len(zone.Members), score)

	zone.Score = score
	zone.Tier = tier

	return score, tier
}
