package shared

// CandleScore holds the per-factor sub-scores for a candidate candle,
// each on a 0-100 scale.
type CandleScore struct {
	// Overlap scores the geometric overlap of the candle with the zone.
	Overlap float64
	// Confluence scores touches of the zone's member levels.
	Confluence float64
	// Volume scores the candle's volume relative to the candidate pool.
	Volume float64
	// Structure scores rejection wicks, body position and candle shape.
	Structure float64
	// Recency scores the candle's position in the candidate pool's time range.
	Recency float64
	// Total is the weighted combination of the sub-scores.
	Total float64
}

// ScoredCandle represents the best historical candle selected for a zone,
// with its full scoring breakdown.
type ScoredCandle struct {
	Candlestick

	// ZoneID identifies the zone the candle was selected for.
	ZoneID int
	// Kind is the candle's shape classification.
	Kind Kind
	// Sentiment is the candle's directional sentiment.
	Sentiment Sentiment
	// OverlapPercent is the fraction of the candle's range inside the zone.
	OverlapPercent float64
	// Scores is the per-factor scoring breakdown.
	Scores CandleScore
	// Touches names the zone member levels the candle touched.
	Touches []string
}
