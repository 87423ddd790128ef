package confluence

import (
	"testing"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/peterldowns/testy/assert"
)

func TestNewFixedZone(t *testing.T) {
	zone, err := NewFixedZone("R3", 100, 0.5)
	assert.NoError(t, err)
	assert.Equal(t, zone.Low, 99.5)
	assert.Equal(t, zone.High, 100.5)
	assert.Equal(t, zone.Width, 1.0)
	assert.Equal(t, zone.Center(), 100.0)
	assert.True(t, zone.IsResistance())
	assert.False(t, zone.IsSupport())

	// Invalid pivot and half width inputs are rejected.
	_, err = NewFixedZone("R3", 0, 0.5)
	assert.Error(t, err)
	_, err = NewFixedZone("R3", 100, 0)
	assert.Error(t, err)
}

func TestNewFixedZoneFromBounds(t *testing.T) {
	zone, err := NewFixedZoneFromBounds("Zone_1", 99, 101)
	assert.NoError(t, err)
	assert.Equal(t, zone.PivotPrice, 100.0)
	assert.Equal(t, zone.Width, 2.0)

	// Inverted and degenerate bounds are rejected.
	_, err = NewFixedZoneFromBounds("Zone_1", 101, 99)
	assert.Error(t, err)
	_, err = NewFixedZoneFromBounds("Zone_1", 100, 100)
	assert.Error(t, err)
}

func TestFixedZoneContainsPrice(t *testing.T) {
	zone, err := NewFixedZone("S4", 100, 0.5)
	assert.NoError(t, err)

	assert.True(t, zone.ContainsPrice(100))
	assert.True(t, zone.ContainsPrice(99.5))
	assert.True(t, zone.ContainsPrice(100.5))
	assert.False(t, zone.ContainsPrice(100.51))
	assert.False(t, zone.ContainsPrice(99.49))
}

func TestFixedZoneOverlapsZone(t *testing.T) {
	zone, err := NewFixedZoneFromBounds("Zone_1", 99.5, 100.5)
	assert.NoError(t, err)

	tests := []struct {
		name string
		low  float64
		high float64
		want bool
	}{
		{
			name: "fully inside",
			low:  99.8,
			high: 100.2,
			want: true,
		},
		{
			name: "partial overlap above threshold",
			low:  100.2,
			high: 102,
			want: true,
		},
		{
			name: "partial overlap below threshold",
			low:  100.4,
			high: 102,
			want: false,
		},
		{
			name: "disjoint",
			low:  101,
			high: 102,
			want: false,
		},
		{
			name: "touching edge",
			low:  100.5,
			high: 101,
			want: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := zone.OverlapsZone(test.low, test.high, 0.2)
			if got != test.want {
				t.Errorf("overlap [%v, %v]: expected %v, got %v", test.low, test.high, test.want, got)
			}
		})
	}
}

func TestFixedZoneSourceToggles(t *testing.T) {
	zone, err := NewFixedZone("R5", 100, 0.5)
	assert.NoError(t, err)

	// All kinds contribute by default.
	assert.True(t, zone.SourceEnabled(shared.HVN30Day))

	zone.SetSourceEnabled(shared.HVN30Day, false)
	assert.False(t, zone.SourceEnabled(shared.HVN30Day))
	assert.True(t, zone.SourceEnabled(shared.CamDaily))

	zone.SetSourceEnabled(shared.HVN30Day, true)
	assert.True(t, zone.SourceEnabled(shared.HVN30Day))
}
