package utils

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"mlp/nn"
)

// WeightLog appends every weight to w after each epoch, one value per line,
// hidden units' incoming weights first and then the output units'. Within a
// unit the bias weight comes last.
type WeightLog struct {
	w io.Writer
}

func NewWeightLog(w io.Writer) *WeightLog {
	return &WeightLog{w: w}
}

func (l *WeightLog) ObserveEpoch(r nn.EpochReport) error {
	bw := bufio.NewWriter(l.w)
	fmt.Fprintf(bw, "EPOCH: %d\n", r.Epoch)
	fmt.Fprintln(bw, "input -> hidden")
	writeWeights(bw, r.Hidden)
	fmt.Fprintln(bw, "hidden -> output")
	writeWeights(bw, r.Output)
	fmt.Fprintln(bw)
	return errors.Wrapf(bw.Flush(), "writing weights for epoch %d", r.Epoch)
}

func writeWeights(w io.Writer, m *mat.Dense) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			fmt.Fprintf(w, "%v\n", m.At(i, j))
		}
	}
}
