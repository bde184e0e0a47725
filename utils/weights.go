package utils

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"mlp/dataset"
	"mlp/nn"
)

// WeightsVersion tags files written by SaveWeights.
const WeightsVersion = "1.0"

// Layer names used as ModelWeights.Layers keys.
const (
	HiddenLayer = "hidden"
	OutputLayer = "output"
)

// WeightData represents serializable weight data for a layer
type WeightData struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// ModelWeights represents all weights in a model, plus the attribute scaling
// the model was trained with, if any.
type ModelWeights struct {
	Version string                 `json:"version"`
	Layers  map[string]LayerWeight `json:"layers"`
	Scaler  *dataset.Scaler        `json:"scaler,omitempty"`
}

// LayerWeight contains weights and bias for a layer. Weight is
// units x fan-in; Bias has one entry per unit.
type LayerWeight struct {
	Weight *WeightData `json:"weight,omitempty"`
	Bias   *WeightData `json:"bias,omitempty"`
}

// SaveWeights saves model weights to a JSON file
func SaveWeights(filepath string, weights *ModelWeights) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal weights")
	}
	return errors.Wrap(os.WriteFile(filepath, data, 0644), "failed to write weights")
}

// LoadWeights loads model weights from a JSON file
func LoadWeights(filepath string) (*ModelWeights, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read weights file")
	}
	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal weights")
	}
	return &weights, nil
}

// DenseToWeightData converts a matrix to serializable row-major weight data
func DenseToWeightData(name string, m mat.Matrix) *WeightData {
	r, c := m.Dims()
	wd := &WeightData{
		Name:  name,
		Shape: []int{r, c},
		Data:  make([]float64, 0, r*c),
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			wd.Data = append(wd.Data, m.At(i, j))
		}
	}
	return wd
}

// WeightDataToDense converts weight data back to a matrix. A one-dimensional
// shape becomes a column vector.
func WeightDataToDense(wd *WeightData) (*mat.Dense, error) {
	var r, c int
	switch len(wd.Shape) {
	case 1:
		r, c = wd.Shape[0], 1
	case 2:
		r, c = wd.Shape[0], wd.Shape[1]
	default:
		return nil, errors.Errorf("%s: unsupported shape %v", wd.Name, wd.Shape)
	}
	if r <= 0 || c <= 0 || len(wd.Data) != r*c {
		return nil, errors.Errorf("%s: shape %v does not hold %d values", wd.Name, wd.Shape, len(wd.Data))
	}
	return mat.NewDense(r, c, append([]float64(nil), wd.Data...)), nil
}

// splitBias turns a matrix whose last column holds bias weights into a
// LayerWeight.
func splitBias(name string, m *mat.Dense) LayerWeight {
	r, c := m.Dims()
	bias := mat.Col(nil, c-1, m)
	return LayerWeight{
		Weight: DenseToWeightData(name+"_weight", m.Slice(0, r, 0, c-1)),
		Bias:   &WeightData{Name: name + "_bias", Shape: []int{r}, Data: bias},
	}
}

// FromNetwork captures the current weights of net. scaler may be nil.
func FromNetwork(net *nn.Network, scaler *dataset.Scaler) *ModelWeights {
	hidden, output := net.Weights()
	return FromMatrices(hidden, output, scaler)
}

// FromMatrices is FromNetwork for weights laid out as in nn.Network.Weights.
func FromMatrices(hidden, output *mat.Dense, scaler *dataset.Scaler) *ModelWeights {
	return &ModelWeights{
		Version: WeightsVersion,
		Layers: map[string]LayerWeight{
			HiddenLayer: splitBias(HiddenLayer, hidden),
			OutputLayer: splitBias(OutputLayer, output),
		},
		Scaler: scaler,
	}
}

func (mw *ModelWeights) layer(name string) (*mat.Dense, error) {
	lw, ok := mw.Layers[name]
	if !ok || lw.Weight == nil || lw.Bias == nil {
		return nil, errors.Errorf("layer %q missing weight or bias", name)
	}
	w, err := WeightDataToDense(lw.Weight)
	if err != nil {
		return nil, err
	}
	r, c := w.Dims()
	if len(lw.Bias.Data) != r {
		return nil, errors.Errorf("layer %q: %d bias values for %d units", name, len(lw.Bias.Data), r)
	}

	out := mat.NewDense(r, c+1, nil)
	out.Slice(0, r, 0, c).(*mat.Dense).Copy(w)
	out.SetCol(c, lw.Bias.Data)
	return out, nil
}

// Matrices reassembles the weights in the nn.Network.Weights layout, bias
// weights in the last column.
func (mw *ModelWeights) Matrices() (hidden, output *mat.Dense, err error) {
	if hidden, err = mw.layer(HiddenLayer); err != nil {
		return nil, nil, err
	}
	if output, err = mw.layer(OutputLayer); err != nil {
		return nil, nil, err
	}
	hr, hc := hidden.Dims()
	if _, oc := output.Dims(); oc != hr+1 {
		return nil, nil, errors.Errorf("output layer expects %d hidden units, hidden layer has %d", oc-1, hr)
	}
	if hc < 2 {
		return nil, nil, errors.New("hidden layer has no inputs")
	}
	return hidden, output, nil
}

// Network rebuilds a network for inference. Its training set is a single
// all-zero placeholder of the right dimensions.
func (mw *ModelWeights) Network() (*nn.Network, error) {
	hidden, output, err := mw.Matrices()
	if err != nil {
		return nil, err
	}
	hr, hc := hidden.Dims()
	classes, _ := output.Dims()

	placeholder := dataset.Instance{
		Attributes:  make([]float64, hc-1),
		ClassValues: make([]float64, classes),
	}
	placeholder.ClassValues[0] = 1
	return nn.NewNetwork(dataset.Instances{placeholder}, hr, Rows(hidden), Rows(output))
}

// Rows copies m into the [][]float64 layout nn.NewNetwork takes.
func Rows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
