package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Load reads CSV rows of attributes followed by an integer class label.
// Every row must have the width of the first one. When classes <= 0 the class
// count is inferred as the largest label + 1.
func Load(reader io.Reader, classes int) (Instances, error) {
	r := csv.NewReader(bufio.NewReader(reader))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'

	var (
		attrs   [][]float64
		labels  []int
		lines   []int
		width   int
		lineNum int
	)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading csv")
		}
		lineNum, _ = r.FieldPos(0)
		if width == 0 {
			width = len(record)
			if width < 2 {
				return nil, errInvalidLine{lineNum: lineNum, splits: width, expected: 2}
			}
		}
		if len(record) != width {
			return nil, errInvalidLine{lineNum: lineNum, splits: len(record), expected: width}
		}

		inputs := make([]float64, width-1)
		for i := range inputs {
			x, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing attribute %d at line %d", i, lineNum)
			}
			inputs[i] = x
		}
		label, err := strconv.Atoi(strings.TrimSpace(record[width-1]))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing label at line %d", lineNum)
		}
		attrs = append(attrs, inputs)
		labels = append(labels, label)
		lines = append(lines, lineNum)
	}

	if classes <= 0 {
		for _, l := range labels {
			if l+1 > classes {
				classes = l + 1
			}
		}
	}

	instances := make(Instances, len(attrs))
	for i := range attrs {
		targets, err := OneHot(labels[i], classes)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lines[i])
		}
		instances[i] = Instance{Attributes: attrs[i], ClassValues: targets}
	}
	return instances, nil
}

// LoadFile opens path and hands it to Load.
func LoadFile(path string, classes int) (Instances, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening dataset")
	}
	defer file.Close()

	instances, err := Load(file, classes)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return instances, nil
}

type errInvalidLine struct {
	lineNum  int
	splits   int
	expected int
}

func (e errInvalidLine) Error() string {
	return fmt.Sprintf("at line %d, expected %d values, got %d",
		e.lineNum, e.expected, e.splits)
}

// Scaler holds per-attribute statistics used for z-score normalisation.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Normalize computes per-attribute mean and standard deviation over
// instances, rescales the attributes in place and returns the statistics so
// the same transform can be applied to unseen data.
func Normalize(instances Instances) Scaler {
	if len(instances) == 0 {
		return Scaler{}
	}
	numEntries := len(instances[0].Attributes)
	s := Scaler{
		Mean: make([]float64, numEntries),
		Std:  make([]float64, numEntries),
	}

	column := make([]float64, len(instances))
	for j := 0; j < numEntries; j++ {
		for i, in := range instances {
			column[i] = in.Attributes[j]
		}
		s.Mean[j], s.Std[j] = stat.MeanStdDev(column, nil)
		if math.IsNaN(s.Std[j]) {
			// single instance
			s.Std[j] = 0
		}
	}
	s.Apply(instances)
	return s
}

// Apply rescales the attributes of instances in place.
func (s Scaler) Apply(instances Instances) {
	for _, in := range instances {
		s.ApplyAttributes(in.Attributes)
	}
}

// ApplyAttributes rescales one attribute vector in place. Constant columns
// are only centred.
func (s Scaler) ApplyAttributes(attrs []float64) {
	for j := range attrs {
		if j >= len(s.Mean) {
			return
		}
		attrs[j] -= s.Mean[j]
		if s.Std[j] > 0 {
			attrs[j] /= s.Std[j]
		}
	}
}

// Separable returns n two-attribute instances split into two clusters around
// (-1,-1) and (1,1). The line x+y = 0 separates them with a margin.
func Separable(rng *rand.Rand, n int) Instances {
	instances := make(Instances, n)
	for i := 0; i < n; i++ {
		label := i % 2
		center := -1.0
		if label == 1 {
			center = 1.0
		}
		targets := make([]float64, 2)
		targets[label] = 1
		instances[i] = Instance{
			Attributes: []float64{
				center + rng.Float64() - 0.5,
				center + rng.Float64() - 0.5,
			},
			ClassValues: targets,
		}
	}
	return instances
}
