package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrossEntropy(t *testing.T) {
	assert.InDelta(t, -math.Log(0.25), CrossEntropy([]float64{0, 1, 0}, []float64{0.5, 0.25, 0.25}), 1e-12)
	assert.Equal(t, 0.0, CrossEntropy([]float64{1, 0}, []float64{1, 0}))

	// zero probabilities on the target class are clamped
	assert.InDelta(t, -math.Log(probFloor), CrossEntropy([]float64{0, 1}, []float64{1, 0}), 1e-9)
	// and ignored on the other classes
	assert.InDelta(t, math.Log(2), CrossEntropy([]float64{1, 0}, []float64{0.5, 0}), 1e-12)
}

func TestCrossEntropyNaNOutput(t *testing.T) {
	assert.True(t, math.IsNaN(CrossEntropy([]float64{1, 0}, []float64{math.NaN(), 0})))
	// non-target entries are never read
	assert.InDelta(t, math.Log(2), CrossEntropy([]float64{0, 1}, []float64{math.NaN(), 0.5}), 1e-12)
}
