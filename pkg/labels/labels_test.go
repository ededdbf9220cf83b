package labels_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/google/price-visibility-booster/pkg/labels"
)

func TestClassifyBoundaries(t *testing.T) {
	// below=-0.1, at=0.05, above=0.05: the At band is [-0.05, 0.05).
	thresholds := labels.Thresholds{Below: -0.1, At: 0.05, Above: 0.05}

	tests := []struct {
		name     string
		relative float64
		want     labels.Band
	}{
		{"well below benchmark", -0.1999, labels.BandBelow},
		{"just below the below threshold", -0.1001, labels.BandBelow},
		{"exactly the below threshold", -0.1, labels.BandNone}, // not < -0.1, not >= -0.05
		{"below the at band", -0.0501, labels.BandNone},
		{"at band lower edge is inclusive", -0.05, labels.BandAt},
		{"zero", 0, labels.BandAt},
		{"inside the at band", 0.0499, labels.BandAt},
		{"at band upper edge is exclusive", 0.05, labels.BandNone}, // 0.05 is not > 0.05 either
		{"just above the above threshold", 0.0501, labels.BandAbove},
		{"well above benchmark", 0.2, labels.BandAbove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, labels.Classify(tt.relative, thresholds))
		})
	}
}

func TestClassifyGapBetweenAtAndAbove(t *testing.T) {
	// When the above threshold is configured past the at band's upper edge,
	// the interval [at, above] matches no rule. Preserved as configured.
	thresholds := labels.Thresholds{Below: -0.1, At: 0.05, Above: 0.08}

	assert.Equal(t, labels.BandAt, labels.Classify(0.0499, thresholds))
	assert.Equal(t, labels.BandNone, labels.Classify(0.05, thresholds))
	assert.Equal(t, labels.BandNone, labels.Classify(0.06, thresholds))
	assert.Equal(t, labels.BandNone, labels.Classify(0.08, thresholds))
	assert.Equal(t, labels.BandAbove, labels.Classify(0.0801, thresholds))
}

func TestClassifyBelowWinsOverAt(t *testing.T) {
	// A relative price under the below threshold classifies as Below even
	// when it also falls outside the at band; rule order is significant.
	thresholds := labels.Thresholds{Below: -0.02, At: 0.05, Above: 0.05}

	assert.Equal(t, labels.BandBelow, labels.Classify(-0.03, thresholds))
	// -0.02 is not < -0.02, and -0.05 <= -0.02 < 0.05 holds.
	assert.Equal(t, labels.BandAt, labels.Classify(-0.02, thresholds))
}

func TestNamesFor(t *testing.T) {
	names := labels.Names{Below: "cheap", At: "market", Above: "expensive"}

	assert.Equal(t, "cheap", names.For(labels.BandBelow))
	assert.Equal(t, "market", names.For(labels.BandAt))
	assert.Equal(t, "expensive", names.For(labels.BandAbove))
	assert.Equal(t, "", names.For(labels.BandNone))
}

func TestBandString(t *testing.T) {
	assert.Equal(t, "below", labels.BandBelow.String())
	assert.Equal(t, "none", labels.BandNone.String())
}
