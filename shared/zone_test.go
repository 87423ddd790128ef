package shared

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestZoneKindString(t *testing.T) {
	tests := []struct {
		name string
		kind ZoneKind
		want string
	}{
		{
			"support zone",
			Support,
			"support",
		},
		{
			"resistance zone",
			Resistance,
			"resistance",
		},
		{
			"unknown zone kind",
			ZoneKind(999),
			"unknown",
		},
	}

	for _, test := range tests {
		str := test.kind.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
	}
}

func TestNewZone(t *testing.T) {
	members := []ConfluenceItem{
		{Name: "Peak_1", Center: 100, Kind: HVN30Day},
		{Name: "R3", Center: 100.4, Kind: CamDaily},
	}

	// Ensure a zone derives its kind, width and distance metrics.
	zone, err := NewZone(1, 99.5, 100.5, 100.2, 98, members)
	assert.NoError(t, err)
	assert.Equal(t, zone.Kind, Resistance)
	assert.Equal(t, zone.Width, 1.0)
	assert.Equal(t, zone.RecencyScore, 1.0)
	if zone.DistancePercent <= 0 {
		t.Errorf("expected positive distance percentage, got %v", zone.DistancePercent)
	}

	// Ensure a zone below the reference price is support.
	zone, err = NewZone(2, 99.5, 100.5, 100.2, 105, members)
	assert.NoError(t, err)
	assert.Equal(t, zone.Kind, Support)

	// Ensure inverted bounds are rejected.
	_, err = NewZone(3, 101, 99, 100, 98, members)
	assert.Error(t, err)

	// Ensure a center outside the bounds is rejected.
	_, err = NewZone(4, 99, 101, 102, 98, members)
	assert.Error(t, err)

	// Ensure zones require members.
	_, err = NewZone(5, 99, 101, 100, 98, nil)
	assert.Error(t, err)
}

func TestNewZoneDegenerateBounds(t *testing.T) {
	// Ensure a lone point level may form a zero width zone.
	point := []ConfluenceItem{{Name: "A1", Center: 100, Kind: DailyLevel}}
	zone, err := NewZone(1, 100, 100, 100, 98, point)
	assert.NoError(t, err)
	assert.Equal(t, zone.Width, 0.0)

	// Ensure a degenerate zone formed from a ranged item is rejected and
	// the error names the offending item.
	ranged := []ConfluenceItem{{Name: "WZ1", Center: 100, Low: FloatPtr(99), High: FloatPtr(101), Kind: WeeklyZone}}
	_, err = NewZone(2, 100, 100, 100, 98, ranged)
	assert.Error(t, err)
	if err != nil && !strings.Contains(err.Error(), "WZ1") {
		t.Errorf("expected error to name the offending item, got %v", err)
	}
}

func TestZoneMemberHelpers(t *testing.T) {
	members := []ConfluenceItem{
		{Name: "Peak_1", Center: 100, Kind: HVN30Day, Strength: 4},
		{Name: "Peak_2", Center: 100.2, Kind: HVN30Day, Strength: 2},
		{Name: "R3", Center: 100.4, Kind: CamDaily},
	}

	zone, err := NewZone(1, 99.5, 100.5, 100.2, 98, members)
	assert.NoError(t, err)
	assert.Equal(t, zone.UniqueKinds(), 2)

	// Average strength uses the default 1.0 for the unset member.
	assert.Equal(t, zone.AverageStrength(), (4.0+2.0+1.0)/3)
}
