package snapshot

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"mlp/dataset"
	"mlp/nn"
)

func testReport(epoch int) nn.EpochReport {
	return nn.EpochReport{
		Epoch:    epoch,
		Epochs:   10,
		MeanLoss: 0.5 / float64(epoch+1),
		Accuracy: 0.75,
		Elapsed:  3 * time.Millisecond,
		Hidden:   mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, float64(epoch)}),
		Output:   mat.NewDense(1, 3, []float64{-1, 0, 1}),
	}
}

func TestStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	r := testReport(4)
	if err := writer.SendEpoch(r); err != nil {
		t.Fatalf("SendEpoch failed: %v", err)
	}

	reader := NewReader(&buf)
	e, err := reader.ReceiveEpoch()
	if err != nil {
		t.Fatalf("ReceiveEpoch failed: %v", err)
	}

	assert.Equal(t, 4, e.Epoch)
	assert.Equal(t, 10, e.Epochs)
	assert.Equal(t, r.MeanLoss, e.MeanLoss)
	assert.Equal(t, 0.75, e.Accuracy)
	assert.Equal(t, 3*time.Millisecond, e.Elapsed)

	hidden, output, err := e.Matrices()
	require.NoError(t, err)
	assert.True(t, mat.Equal(r.Hidden, hidden))
	assert.True(t, mat.Equal(r.Output, output))
}

func TestStreamDone(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	if err := writer.SendDone(); err != nil {
		t.Fatalf("SendDone failed: %v", err)
	}

	reader := NewReader(&buf)
	_, err := reader.ReceiveEpoch()
	if err != io.EOF {
		t.Errorf("Expected io.EOF after done, got %v", err)
	}
}

func TestStreamError(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	if err := writer.SendError(io.ErrUnexpectedEOF); err != nil {
		t.Fatalf("SendError failed: %v", err)
	}

	reader := NewReader(&buf)
	_, err := reader.ReceiveEpoch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote error")
	assert.Contains(t, err.Error(), io.ErrUnexpectedEOF.Error())
}

func TestSendEpochWithoutWeights(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(&buf).SendEpoch(nn.EpochReport{Epoch: 1})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestLast(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)
	for i := 0; i < 3; i++ {
		require.NoError(t, writer.SendEpoch(testReport(i)))
	}
	require.NoError(t, writer.SendDone())

	e, err := Last(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, e.Epoch)

	// without the done marker
	buf.Reset()
	writer = NewWriter(&buf)
	require.NoError(t, writer.SendEpoch(testReport(0)))
	e, err = Last(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Epoch)
}

func TestLastEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).SendDone())
	_, err := Last(&buf)
	assert.True(t, errors.Is(err, ErrNoEpochs))
}

func TestWriterObservesTraining(t *testing.T) {
	data := dataset.Separable(rand.New(rand.NewSource(1)), 20)
	hw, ow := nn.InitWeights(rand.New(rand.NewSource(2)), 2, 3, 2)
	net, err := nn.NewNetwork(data, 3, hw, ow)
	require.NoError(t, err)

	var buf bytes.Buffer
	writer := NewWriter(&buf)
	require.NoError(t, net.Train(context.Background(), nn.TrainOptions{
		LearningRate: 0.1,
		MaxEpochs:    3,
		Observers:    []nn.Observer{writer},
	}))
	require.NoError(t, writer.SendDone())
	streamBytes := buf.Bytes()

	reader := NewReader(bytes.NewReader(streamBytes))
	for i := 0; i < 3; i++ {
		e, err := reader.ReceiveEpoch()
		require.NoError(t, err)
		assert.Equal(t, i, e.Epoch)
		assert.Equal(t, 3, e.Epochs)
	}
	_, err = reader.ReceiveEpoch()
	assert.Equal(t, io.EOF, err)

	e, err := Last(bytes.NewReader(streamBytes))
	require.NoError(t, err)
	assert.Equal(t, 2, e.Epoch)
	hidden, output, err := e.Matrices()
	require.NoError(t, err)
	wantHidden, wantOutput := net.Weights()
	assert.True(t, mat.Equal(wantHidden, hidden))
	assert.True(t, mat.Equal(wantOutput, output))
}

func TestMessageTypes(t *testing.T) {
	if MsgEpoch != 0 {
		t.Errorf("MsgEpoch = %d, want 0", MsgEpoch)
	}
	if MsgDone != 1 {
		t.Errorf("MsgDone = %d, want 1", MsgDone)
	}
	if MsgError != 2 {
		t.Errorf("MsgError = %d, want 2", MsgError)
	}
}
