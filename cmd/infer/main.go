// mlp-infer: classifies with weights saved by mlp-train
//
// Usage:
//
//	mlp-infer -weights=weights.json -query="5.1,3.5,1.4,0.2"
//	mlp-infer -snapshot=run.gob -data=iris.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"mlp/dataset"
	"mlp/nn"
	"mlp/snapshot"
	"mlp/utils"
)

const tag = "INFER"

var (
	weightsFile  = flag.String("weights", "", "Weights JSON file")
	snapshotFile = flag.String("snapshot", "", "Snapshot stream; the last epoch is used")
	dataFile     = flag.String("data", "", "CSV data set to score")
	classes      = flag.Int("classes", 0, "Number of classes in the data set (0 = from the model)")
	normalize    = flag.Bool("normalize", false, "Z-score the data set with its own statistics when the model carries none")
	query        = flag.String("query", "", "Comma-separated attributes; separate several queries with ';'")
	topK         = flag.Int("topk", 3, "Top predictions to show")
	verbose      = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if (*weightsFile == "") == (*snapshotFile == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -weights and -snapshot is required")
		os.Exit(2)
	}
	if *dataFile == "" && *query == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: give -data or -query")
		os.Exit(2)
	}

	weights, err := loadModel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading model: %v\n", err)
		os.Exit(1)
	}
	net, err := weights.Network()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building network: %v\n", err)
		os.Exit(1)
	}
	utils.Logf(tag, "model: %d attributes, %d hidden units, %d classes",
		net.InputSize(), net.HiddenSize(), net.OutputSize())

	if *query != "" {
		if err := runQueries(net, weights.Scaler, *query); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *dataFile != "" {
		if err := runDataset(net, weights.Scaler, *dataFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func loadModel() (*utils.ModelWeights, error) {
	if *weightsFile != "" {
		return utils.LoadWeights(*weightsFile)
	}

	f, err := os.Open(*snapshotFile)
	if err != nil {
		return nil, errors.Wrap(err, "opening snapshot stream")
	}
	defer f.Close()

	last, err := snapshot.Last(f)
	if err != nil {
		return nil, err
	}
	hidden, output, err := last.Matrices()
	if err != nil {
		return nil, err
	}
	utils.Logf(tag, "using epoch %d/%d (loss %.3e)", last.Epoch+1, last.Epochs, last.MeanLoss)
	return utils.FromMatrices(hidden, output, nil), nil
}

func parseQuery(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	attrs := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %d", i)
		}
		attrs[i] = x
	}
	return attrs, nil
}

func runQueries(net *nn.Network, scaler *dataset.Scaler, queries string) error {
	for i, q := range strings.Split(queries, ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		attrs, err := parseQuery(q)
		if err != nil {
			return errors.Wrapf(err, "query %d", i+1)
		}
		if len(attrs) != net.InputSize() {
			return errors.Wrapf(nn.ErrDimensionMismatch, "query %d has %d attributes, model expects %d",
				i+1, len(attrs), net.InputSize())
		}
		if scaler != nil {
			scaler.ApplyAttributes(attrs)
		}

		in := dataset.Instance{Attributes: attrs}
		start := time.Now()
		class := net.Predict(in)
		elapsed := time.Since(start)

		fmt.Printf("\nQuery %d: class %d (%.1fµs)\n", i+1, class, utils.DurationUS(elapsed))
		showResults(net.Outputs(), *topK)
	}
	return nil
}

func runDataset(net *nn.Network, scaler *dataset.Scaler, path string) error {
	classCount := *classes
	if classCount == 0 {
		classCount = net.OutputSize()
	}
	instances, err := dataset.LoadFile(path, classCount)
	if err != nil {
		return err
	}
	switch {
	case scaler != nil:
		scaler.Apply(instances)
	case *normalize:
		dataset.Normalize(instances)
	}

	var totalLoss float64
	correct := 0
	for i, in := range instances {
		if !net.Fits(in) {
			return errors.Wrapf(nn.ErrDimensionMismatch, "row %d", i+1)
		}
		totalLoss += net.Loss(in)
		if net.Predict(in) == in.Class() {
			correct++
		}
	}
	n := float64(len(instances))
	if n == 0 {
		return errors.Errorf("%s holds no instances", path)
	}
	fmt.Printf("\nInstances: %d\n", len(instances))
	fmt.Printf("Accuracy:  %.2f%%\n", float64(correct)/n*100)
	fmt.Printf("Mean loss: %.3e\n", totalLoss/n)
	return nil
}

func showResults(probs []float64, k int) {
	indices := topKIndices(probs, k)

	fmt.Printf("Top %d predictions:\n", len(indices))
	for i, idx := range indices {
		fmt.Printf("  %d. Class %d: %.4f\n", i+1, idx, probs[idx])
	}
}

func topKIndices(vals []float64, k int) []int {
	if k > len(vals) {
		k = len(vals)
	}
	if k < 0 {
		k = 0
	}
	indices := make([]int, k)
	used := make(map[int]bool)
	for i := 0; i < k; i++ {
		maxIdx, maxVal := -1, math.Inf(-1)
		for j, v := range vals {
			if used[j] {
				continue
			}
			// NaN ranks below every number
			if maxIdx == -1 || v > maxVal || (math.IsNaN(maxVal) && !math.IsNaN(v)) {
				maxVal, maxIdx = v, j
			}
		}
		indices[i] = maxIdx
		used[maxIdx] = true
	}
	return indices
}
