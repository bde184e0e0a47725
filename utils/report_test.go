package utils

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"mlp/nn"
)

func TestReporter(t *testing.T) {
	buf := captureOutput(t, true)
	err := Reporter{}.ObserveEpoch(nn.EpochReport{
		Epoch:    2,
		Epochs:   20,
		MeanLoss: 0.1234,
		Accuracy: 0.975,
		Elapsed:  10 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, "Epoch 3/20 | Loss: 1.234e-01 | Accuracy: 97.50% | Time: 0.01s\n", buf.String())
}

func TestLogf(t *testing.T) {
	buf := captureOutput(t, true)
	Logf("TRAIN", "loaded %d instances", 150)
	assert.Equal(t, "[TRAIN] loaded 150 instances\n", buf.String())

	buf = captureOutput(t, false)
	Logf("TRAIN", "hidden")
	Reporter{}.ObserveEpoch(nn.EpochReport{})
	assert.Empty(t, buf.String())
}

func TestWeightLog(t *testing.T) {
	var buf bytes.Buffer
	log := NewWeightLog(&buf)
	report := nn.EpochReport{
		Epoch:  0,
		Hidden: mat.NewDense(1, 2, []float64{0.5, -1}),
		Output: mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
	}
	require.NoError(t, log.ObserveEpoch(report))
	report.Epoch = 1
	require.NoError(t, log.ObserveEpoch(report))

	want := "EPOCH: 0\ninput -> hidden\n0.5\n-1\nhidden -> output\n1\n2\n3\n4\n\n"
	assert.Equal(t, want+strings.Replace(want, "EPOCH: 0", "EPOCH: 1", 1), buf.String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWeightLogWriteError(t *testing.T) {
	err := NewWeightLog(failWriter{}).ObserveEpoch(nn.EpochReport{
		Hidden: mat.NewDense(1, 1, []float64{1}),
		Output: mat.NewDense(1, 1, []float64{1}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
