package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// InitWeights draws initial weights for NewNetwork from U(-1/sqrt(fanIn),
// 1/sqrt(fanIn)), where fanIn counts the bias. The same rng state gives the
// same weights.
func InitWeights(rng *rand.Rand, inputCount, hiddenCount, outputCount int) (hidden, output [][]float64) {
	hidden = uniformRows(rng, hiddenCount, inputCount+1)
	output = uniformRows(rng, outputCount, hiddenCount+1)
	return hidden, output
}

func uniformRows(rng *rand.Rand, rows, cols int) [][]float64 {
	limit := 1 / math.Sqrt(float64(cols))
	dist := distuv.Uniform{Min: -limit, Max: limit}

	w := make([][]float64, rows)
	for r := range w {
		w[r] = make([]float64, cols)
		for c := range w[r] {
			w[r][c] = dist.Quantile(rng.Float64())
		}
	}
	return w
}
