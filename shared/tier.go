package shared

// Tier represents the discrete confidence ranking of a zone.
type Tier int

const (
	L0 Tier = iota
	L1
	L2
	L3
	L4
	L5
)

// String stringifies the provided tier.
func (t Tier) String() string {
	switch t {
	case L0:
		return "L0"
	case L1:
		return "L1"
	case L2:
		return "L2"
	case L3:
		return "L3"
	case L4:
		return "L4"
	case L5:
		return "L5"
	default:
		return "unknown"
	}
}

// TierStrategy maps a zone's member count and weighted score to a tier.
// The two schemes below are not interchangeable, different call sites
// use different ones.
type TierStrategy func(memberCount int, score float64) Tier

// TierByMemberCount derives a tier purely from the number of confluent
// members backing a zone. Used by the discovery engine.
func TierByMemberCount(memberCount int, _ float64) Tier {
	switch {
	case memberCount >= 10:
		return L5
	case memberCount >= 8:
		return L4
	case memberCount >= 6:
		return L3
	case memberCount >= 4:
		return L2
	case memberCount >= 2:
		return L1
	default:
		return L0
	}
}

// TierByWeightedScore derives a tier from a zone's weighted confluence
// score. Used by the fixed-zone confluence engine.
func TierByWeightedScore(_ int, score float64) Tier {
	switch {
	case score >= 16:
		return L5
	case score >= 12:
		return L4
	case score >= 8:
		return L3
	case score >= 4:
		return L2
	default:
		return L1
	}
}
