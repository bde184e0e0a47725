package nn

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"mlp/dataset"
)

// Network owns a three-layer node graph: inputs plus a trailing bias, hidden
// ReLU units plus a trailing bias, and softmax outputs. The structure is fixed
// at construction; only weights and cached node state change afterwards.
type Network struct {
	inputLayer  []*Node
	hiddenLayer []*Node
	outputLayer []*Node

	trainingSet dataset.Instances
}

// TrainOptions configures Train.
type TrainOptions struct {
	LearningRate float64
	MaxEpochs    int
	// Seed drives the per-epoch shuffle. Equal seeds give equal runs.
	Seed      int64
	Observers []Observer
}

func (o TrainOptions) validate() error {
	if o.LearningRate <= 0 || math.IsInf(o.LearningRate, 0) || math.IsNaN(o.LearningRate) {
		return errors.Wrapf(ErrInvalidTrainOptions, "learning rate %v", o.LearningRate)
	}
	if o.MaxEpochs < 0 {
		return errors.Wrapf(ErrInvalidTrainOptions, "max epochs %d", o.MaxEpochs)
	}
	return nil
}

// NewNetwork builds and wires the layers. hiddenWeights[h][i] is the initial
// weight from input i (the last column being the bias) to hidden unit h;
// outputWeights[o][h] likewise from hidden unit h to output o.
//
// Layer sizes come from the first instance. The network keeps instances as
// its training set and reorders it in place during Train.
func NewNetwork(instances dataset.Instances, hiddenCount int, hiddenWeights, outputWeights [][]float64) (*Network, error) {
	if len(instances) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if hiddenCount <= 0 {
		return nil, errors.Wrapf(ErrInvalidLayerSize, "hidden count %d", hiddenCount)
	}
	inputCount := len(instances[0].Attributes)
	outputCount := len(instances[0].ClassValues)
	if inputCount <= 0 {
		return nil, errors.Wrapf(ErrInvalidLayerSize, "attribute count %d", inputCount)
	}
	if outputCount <= 0 {
		return nil, errors.Wrapf(ErrInvalidLayerSize, "class count %d", outputCount)
	}
	for i, in := range instances {
		if len(in.Attributes) != inputCount || len(in.ClassValues) != outputCount {
			return nil, errors.Wrapf(ErrDimensionMismatch,
				"instance %d has %d attributes and %d classes, want %d and %d",
				i, len(in.Attributes), len(in.ClassValues), inputCount, outputCount)
		}
	}
	if err := checkShape("hidden weights", hiddenWeights, hiddenCount, inputCount+1); err != nil {
		return nil, err
	}
	if err := checkShape("output weights", outputWeights, outputCount, hiddenCount+1); err != nil {
		return nil, err
	}

	net := &Network{
		inputLayer:  make([]*Node, 0, inputCount+1),
		hiddenLayer: make([]*Node, 0, hiddenCount+1),
		outputLayer: make([]*Node, 0, outputCount),
		trainingSet: instances,
	}

	for i := 0; i < inputCount; i++ {
		net.inputLayer = append(net.inputLayer, mustNode(Input))
	}
	net.inputLayer = append(net.inputLayer, mustNode(BiasToHidden))

	for h := 0; h < hiddenCount; h++ {
		node := mustNode(Hidden)
		for i, src := range net.inputLayer {
			node.connect(src, hiddenWeights[h][i])
		}
		net.hiddenLayer = append(net.hiddenLayer, node)
	}
	net.hiddenLayer = append(net.hiddenLayer, mustNode(BiasToOutput))

	for o := 0; o < outputCount; o++ {
		node := mustNode(Output)
		for h, src := range net.hiddenLayer {
			node.connect(src, outputWeights[o][h])
		}
		net.outputLayer = append(net.outputLayer, node)
	}

	return net, nil
}

func checkShape(name string, w [][]float64, rows, cols int) error {
	if len(w) != rows {
		return errors.Wrapf(ErrDimensionMismatch, "%s: %d rows, want %d", name, len(w), rows)
	}
	for r, row := range w {
		if len(row) != cols {
			return errors.Wrapf(ErrDimensionMismatch, "%s: row %d has %d columns, want %d", name, r, len(row), cols)
		}
	}
	return nil
}

func mustNode(kind Kind) *Node {
	n, err := NewNode(kind)
	if err != nil {
		panic(err)
	}
	return n
}

// InputSize is the number of attributes, excluding the bias node.
func (net *Network) InputSize() int { return len(net.inputLayer) - 1 }

// HiddenSize is the number of hidden units, excluding the bias node.
func (net *Network) HiddenSize() int { return len(net.hiddenLayer) - 1 }

// OutputSize is the number of classes.
func (net *Network) OutputSize() int { return len(net.outputLayer) }

// Fits reports whether in has the dimensions the network was built for.
func (net *Network) Fits(in dataset.Instance) bool {
	return len(in.Attributes) == net.InputSize() && len(in.ClassValues) == net.OutputSize()
}

// Forward evaluates the network on one instance. Afterwards the output
// activations form a probability distribution over the classes.
func (net *Network) Forward(in dataset.Instance) {
	for i, node := range net.inputLayer[:len(net.inputLayer)-1] {
		node.SetInput(in.Attributes[i])
	}
	for _, node := range net.hiddenLayer {
		node.CalculateOutput()
	}

	var sum float64
	for _, node := range net.outputLayer {
		node.CalculateOutput()
		sum += node.Output()
	}
	for _, node := range net.outputLayer {
		node.Divide(sum)
	}
}

// Outputs returns a copy of the output activations from the last Forward.
func (net *Network) Outputs() []float64 {
	out := make([]float64, len(net.outputLayer))
	for i, node := range net.outputLayer {
		out[i] = node.Output()
	}
	return out
}

// Predict returns the index of the most probable class. Ties go to the
// lowest index.
func (net *Network) Predict(in dataset.Instance) int {
	net.Forward(in)
	return floats.MaxIdx(net.Outputs())
}

// Loss returns the cross-entropy between the instance's one-hot target and
// the network's prediction.
func (net *Network) Loss(in dataset.Instance) float64 {
	net.Forward(in)
	return CrossEntropy(in.ClassValues, net.Outputs())
}

// Accuracy returns the fraction of instances predicted correctly.
func (net *Network) Accuracy(instances dataset.Instances) float64 {
	if len(instances) == 0 {
		return 0
	}
	correct := 0
	for _, in := range instances {
		if net.Predict(in) == in.Class() {
			correct++
		}
	}
	return float64(correct) / float64(len(instances))
}

// backward computes output deltas from targets, then hidden deltas from the
// still unchanged hidden->output weights.
func (net *Network) backward(targets []float64) {
	for k, node := range net.outputLayer {
		node.CalculateDelta(targets[k], nil)
	}
	for _, node := range net.hiddenLayer {
		node.CalculateDelta(0, net.outputLayer)
	}
}

// update must follow backward: hidden deltas read the output weights it
// changes.
func (net *Network) update(learningRate float64) {
	for _, node := range net.outputLayer {
		node.UpdateWeight(learningRate)
	}
	for _, node := range net.hiddenLayer {
		node.UpdateWeight(learningRate)
	}
}

// evaluate returns the mean loss and accuracy over instances.
func (net *Network) evaluate(instances dataset.Instances) (meanLoss, accuracy float64) {
	losses := make([]float64, len(instances))
	correct := 0
	for i, in := range instances {
		losses[i] = net.Loss(in)
		if floats.MaxIdx(net.Outputs()) == in.Class() {
			correct++
		}
	}
	n := float64(len(instances))
	return floats.Sum(losses) / n, float64(correct) / n
}

// Train runs exactly opts.MaxEpochs epochs of per-example gradient descent.
// Each epoch shuffles the training set, then for every instance runs forward,
// computes all deltas and only then updates output and hidden weights.
// Observers receive a report after every epoch; the first observer error
// stops training. ctx is checked between epochs.
func (net *Network) Train(ctx context.Context, opts TrainOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	set := net.trainingSet

	for epoch := 0; epoch < opts.MaxEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "training stopped before epoch %d", epoch)
		}
		start := time.Now()

		rng.Shuffle(len(set), func(i, j int) {
			set[i], set[j] = set[j], set[i]
		})
		for _, in := range set {
			net.Forward(in)
			net.backward(in.ClassValues)
			net.update(opts.LearningRate)
		}

		meanLoss, accuracy := net.evaluate(set)
		if len(opts.Observers) == 0 {
			continue
		}
		report := EpochReport{
			Epoch:    epoch,
			Epochs:   opts.MaxEpochs,
			MeanLoss: meanLoss,
			Accuracy: accuracy,
			Elapsed:  time.Since(start),
		}
		report.Hidden, report.Output = net.Weights()
		for _, o := range opts.Observers {
			if err := o.ObserveEpoch(report); err != nil {
				return errors.Wrapf(err, "observer failed at epoch %d", epoch)
			}
		}
	}
	return nil
}

// Weights returns copies of the current weights. hidden is
// HiddenSize x (InputSize+1) and output is OutputSize x (HiddenSize+1); the
// last column of each holds the bias weights.
func (net *Network) Weights() (hidden, output *mat.Dense) {
	return layerWeights(net.hiddenLayer[:len(net.hiddenLayer)-1]), layerWeights(net.outputLayer)
}

func layerWeights(layer []*Node) *mat.Dense {
	w := mat.NewDense(len(layer), len(layer[0].edges), nil)
	for r, node := range layer {
		for c, e := range node.edges {
			w.Set(r, c, e.Weight)
		}
	}
	return w
}
