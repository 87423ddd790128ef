// Package candles selects the best representative historical candle for a
// confluence zone. Only real price action is considered, a zone with no
// overlapping candle is simply left without one.
package candles

import (
	"time"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/rs/zerolog"
)

const (
	// touchPoints is the score awarded per touched confluence level.
	touchPoints = 20.0
	// maxFactorScore is the ceiling for every scoring factor.
	maxFactorScore = 100.0
	// strongWickScore, moderateWickScore and weakWickScore grade rejection
	// wicks opposing the zone's directional bias.
	strongWickScore   = 40.0
	moderateWickScore = 25.0
	weakWickScore     = 10.0
	// bodyProximityScore is the maximum score for a candle body centered
	// on the zone.
	bodyProximityScore = 30.0
	// dojiScore, confirmedShapeScore, smallBodyScore and plainCandleScore
	// grade candle shapes by the indecision they signal at a zone.
	dojiScore           = 30.0
	confirmedShapeScore = 25.0
	smallBodyScore      = 15.0
	plainCandleScore    = 10.0
)

// Weights holds the per-factor weights for candidate scoring. The weights
// are expected to sum to 1.
type Weights struct {
	Overlap    float64 `yaml:"overlap"`
	Confluence float64 `yaml:"confluence"`
	Volume     float64 `yaml:"volume"`
	Structure  float64 `yaml:"structure"`
	Recency    float64 `yaml:"recency"`
}

// DefaultWeights returns the standard candle scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Overlap:    0.30,
		Confluence: 0.25,
		Volume:     0.20,
		Structure:  0.15,
		Recency:    0.10,
	}
}

// SelectorConfig represents the configuration for the candle selector.
type SelectorConfig struct {
	// Weights are the per-factor scoring weights.
	Weights Weights
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Selector scores candidate candles against zones and picks the best
// representative for each.
type Selector struct {
	cfg *SelectorConfig
}

// NewSelector initializes a new candle selector.
func NewSelector(cfg *SelectorConfig) *Selector {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}

	return &Selector{
		cfg: cfg,
	}
}

// Overlap returns the fraction of the candle's range inside the zone, in
// the range [0, 1]. A zero range candle counts as fully inside when its
// price lies within the zone.
func Overlap(candleHigh, candleLow, zoneHigh, zoneLow float64) float64 {
	candleRange := candleHigh - candleLow
	if candleRange == 0 {
		if zoneLow <= candleLow && candleLow <= zoneHigh {
			return 1.0
		}
		return 0.0
	}

	overlapLow := max(candleLow, zoneLow)
	overlapHigh := min(candleHigh, zoneHigh)
	if overlapHigh <= overlapLow {
		return 0.0
	}

	return (overlapHigh - overlapLow) / candleRange
}

// SelectBest picks the highest scoring candidate candle for the provided
// zone. It returns false when no candidate overlaps the zone at all, a
// synthetic candle is never fabricated here.
func (s *Selector) SelectBest(zone *shared.Zone, candidates []shared.Candlestick) (*shared.ScoredCandle, bool) {
	overlapping := make([]shared.Candlestick, 0, len(candidates))
	for idx := range candidates {
		candle := &candidates[idx]
		// A boundary touch scores zero overlap and is never attached.
		if Overlap(candle.High, candle.Low, zone.High, zone.Low) == 0 {
			continue
		}
		overlapping = append(overlapping, *candle)
	}

	if len(overlapping) == 0 {
		if s.cfg.Logger != nil {
			s.cfg.Logger.Debug().Msgf("zone %d: no overlapping candles found", zone.ID)
		}
		return nil, false
	}

	maxVolume, avgVolume := volumeStats(overlapping)
	earliest, latest := timeBounds(overlapping)

	var best *shared.ScoredCandle
	for idx := range overlapping {
		scored := s.scoreCandle(&overlapping[idx], zone, maxVolume, avgVolume, earliest, latest)

		switch {
		case best == nil:
			best = scored
		case scored.Scores.Total > best.Scores.Total:
			best = scored
		case scored.Scores.Total == best.Scores.Total && scored.Date.After(best.Date):
			// Exact ties prefer the more recent candle.
			best = scored
		}
	}

	return best, true
}

// scoreCandle computes the full weighted scoring breakdown for one candidate.
func (s *Selector) scoreCandle(candle *shared.Candlestick, zone *shared.Zone, maxVolume, avgVolume float64, earliest, latest time.Time) *shared.ScoredCandle {
	overlapPct := Overlap(candle.High, candle.Low, zone.High, zone.Low)
	touches := confluenceTouches(candle, zone.Members)

	scores := shared.CandleScore{
		Overlap:    overlapPct * 100,
		Confluence: min(float64(len(touches))*touchPoints, maxFactorScore),
		Volume:     volumeScore(candle, maxVolume, avgVolume),
		Structure:  structureScore(candle, zone),
		Recency:    recencyScore(candle.Date, earliest, latest),
	}

	weights := s.cfg.Weights
	scores.Total = scores.Overlap*weights.Overlap +
		scores.Confluence*weights.Confluence +
		scores.Volume*weights.Volume +
		scores.Structure*weights.Structure +
		scores.Recency*weights.Recency

	return &shared.ScoredCandle{
		Candlestick:    *candle,
		ZoneID:         zone.ID,
		Kind:           candle.FetchKind(),
		Sentiment:      candle.FetchSentiment(),
		OverlapPercent: overlapPct,
		Scores:         scores,
		Touches:        touches,
	}
}

// confluenceTouches returns the names of the zone members the candle touches.
// Point levels are touched when their price falls within the candle range,
// ranged members when their bounds overlap the candle.
func confluenceTouches(candle *shared.Candlestick, members []shared.ConfluenceItem) []string {
	touches := make([]string, 0, len(members))
	for idx := range members {
		member := &members[idx]
		low, high := member.Bounds()

		var touched bool
		switch {
		case member.IsZone():
			touched = low <= candle.High && high >= candle.Low
		default:
			touched = candle.Low <= member.Center && member.Center <= candle.High
		}

		if touched {
			touches = append(touches, member.Kind.String()+":"+member.Name)
		}
	}

	return touches
}

// volumeScore grades the candle's volume against the candidate pool.
func volumeScore(candle *shared.Candlestick, maxVolume, avgVolume float64) float64 {
	if candle.Volume <= 0 || maxVolume <= 0 {
		return 0
	}

	relative := candle.Volume / maxVolume
	score := relative * 50

	if avgVolume > 0 {
		aboveAverage := candle.Volume / avgVolume
		score += min(aboveAverage*25, 50)
	}

	return score
}

// structureScore grades rejection wicks, body position and candle shape,
// capped at 100.
func structureScore(candle *shared.Candlestick, zone *shared.Zone) float64 {
	var score float64

	candleRange := candle.Range()
	if candleRange > 0 {
		// A wick opposing the zone's directional bias signals rejection.
		var wickRatio float64
		switch zone.Kind {
		case shared.Resistance:
			wickRatio = candle.UpperWick() / candleRange
		default:
			wickRatio = candle.LowerWick() / candleRange
		}

		switch {
		case wickRatio > 0.5:
			score += strongWickScore
		case wickRatio > 0.3:
			score += moderateWickScore
		case wickRatio > 0.1:
			score += weakWickScore
		}
	}

	if zone.Width > 0 {
		bodyCenter := (candle.Open + candle.Close) / 2
		zoneCenter := (zone.High + zone.Low) / 2

		distance := bodyCenter - zoneCenter
		if distance < 0 {
			distance = -distance
		}

		proximity := 1 - distance/zone.Width
		score += max(0, proximity*bodyProximityScore)
	}

	if candleRange > 0 {
		bodyRatio := candle.Body() / candleRange
		switch {
		case bodyRatio < 0.1:
			// Doji or spinning top, maximum indecision at the zone.
			score += dojiScore
		case bodyRatio < 0.3:
			switch {
			case zone.Kind == shared.Resistance && candle.UpperWick() > candle.Body()*2:
				// Shooting star at resistance.
				score += confirmedShapeScore
			case zone.Kind == shared.Support && candle.LowerWick() > candle.Body()*2:
				// Hammer at support.
				score += confirmedShapeScore
			default:
				score += smallBodyScore
			}
		default:
			score += plainCandleScore
		}
	}

	return min(score, maxFactorScore)
}

// recencyScore grades the candle's position in the candidate pool's time
// range. Recency is relative to the pool, not to wall clock now.
func recencyScore(date time.Time, earliest, latest time.Time) float64 {
	timeRange := latest.Sub(earliest).Seconds()
	if timeRange <= 0 {
		return maxFactorScore
	}

	return date.Sub(earliest).Seconds() / timeRange * maxFactorScore
}

// volumeStats returns the maximum and mean volume among candidates with
// positive volume.
func volumeStats(candles []shared.Candlestick) (float64, float64) {
	var maxVolume, volumeSum float64
	var count int

	for idx := range candles {
		volume := candles[idx].Volume
		if volume <= 0 {
			continue
		}

		if volume > maxVolume {
			maxVolume = volume
		}
		volumeSum += volume
		count++
	}

	if count == 0 {
		return 0, 0
	}

	return maxVolume, volumeSum / float64(count)
}

// timeBounds returns the earliest and latest candle dates in the pool.
func timeBounds(candles []shared.Candlestick) (time.Time, time.Time) {
	earliest, latest := candles[0].Date, candles[0].Date
	for idx := range candles[1:] {
		date := candles[idx+1].Date
		if date.Before(earliest) {
			earliest = date
		}
		if date.After(latest) {
			latest = date
		}
	}

	return earliest, latest
}
