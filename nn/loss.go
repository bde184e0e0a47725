package nn

import (
	"math"
)

// probFloor keeps ln away from zero when a probability underflows.
const probFloor = 1e-15

// CrossEntropy returns -sum(target_k * ln(output_k)). Outputs below
// probFloor are clamped to it, so the result is finite whenever the outputs
// are. A NaN output on the target class yields NaN.
func CrossEntropy(targets, outputs []float64) float64 {
	var loss float64
	for k, t := range targets {
		if t == 0 {
			continue
		}
		p := outputs[k]
		if p < probFloor {
			p = probFloor
		}
		loss -= t * math.Log(p)
	}
	return loss
}
