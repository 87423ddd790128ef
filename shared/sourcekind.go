package shared

// SourceKind identifies the indicator source that produced a confluence item.
// The core is agnostic to which producer created an item beyond its kind,
// which is used for diversity bonuses and per-zone enable flags.
type SourceKind string

const (
	HVN30Day       SourceKind = "hvn-30d"
	HVN14Day       SourceKind = "hvn-14d"
	HVN7Day        SourceKind = "hvn-7d"
	CamMonthly     SourceKind = "cam-monthly"
	CamWeekly      SourceKind = "cam-weekly"
	CamDaily       SourceKind = "cam-daily"
	WeeklyZone     SourceKind = "weekly-zone"
	DailyZone      SourceKind = "daily-zone"
	DailyLevel     SourceKind = "daily-level"
	ATRZone        SourceKind = "atr-zone"
	Fractal        SourceKind = "fractal"
	MarketStruct   SourceKind = "market-structure"
	ReferencePrice SourceKind = "reference-price"
)

// String stringifies the provided source kind.
func (s SourceKind) String() string {
	return string(s)
}
