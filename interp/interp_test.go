package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuadratic(t *testing.T) {
	t.Run("recovers parabola", func(t *testing.T) {
		// y = 0.1/18·x² + 0.05·x + 1 through (-3, 0.9), (0, 1), (3, 1.2)
		assert.InDelta(t, 1.055556, Quadratic(1, -3, 0, 3, 0.9, 1.0, 1.2), 1e-6)
		assert.InDelta(t, 0.955556, Quadratic(-1, -3, 0, 3, 0.9, 1.0, 1.2), 1e-6)
	})

	t.Run("normalised to middle point", func(t *testing.T) {
		assert.InDelta(t, 1.055556, Quadratic(1, -3, 0, 3, 90, 100, 120), 1e-6)
	})

	t.Run("degenerate abscissae", func(t *testing.T) {
		assert.True(t, math.IsNaN(Quadratic(1, 0, 0, 0, 1, 1, 1)))
	})
}

func TestOneSigma(t *testing.T) {
	tests := []struct {
		name             string
		nom, down, up    float64
		quad             int
		wantDown, wantUp float64
	}{
		{"zero nominal", 0, 5, 7, 0, 1, 1},
		{"zero nominal with interpolation", 0, 5, 7, 3, 1, 1},
		{"plain ratios", 200, 190, 212, 0, 0.95, 1.06},
		{"linear templates at one sigma", 100, 90, 110, 1, 0.9, 1.1},
		{"quadratic from three sigma", 100, 90, 120, 3, 0.955556, 1.055556},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OneSigma(tt.nom, tt.down, tt.up, tt.quad)
			assert.InDelta(t, tt.wantDown, got[0], 1e-6)
			assert.InDelta(t, tt.wantUp, got[1], 1e-6)
		})
	}
}
