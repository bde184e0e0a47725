// mlp-train: trains a one-hidden-layer perceptron on a CSV data set or on a
// synthetic separable set.
//
// Usage:
//
//	mlp-train -data=iris.csv -hidden=6 -lr=0.01 -epochs=50 -normalize -output=weights.json
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"mlp/dataset"
	"mlp/nn"
	"mlp/snapshot"
	"mlp/utils"
)

const tag = "TRAIN"

var defaults = utils.DefaultConfig()

var (
	configFile   = flag.String("config", "", "Config file (YAML, JSON or TOML)")
	dataFile     = flag.String("data", defaults.Data, "CSV data set: attributes then class label")
	classes      = flag.Int("classes", defaults.Classes, "Number of classes (0 = infer from labels)")
	hidden       = flag.Int("hidden", defaults.Hidden, "Hidden layer size")
	learningRate = flag.Float64("lr", defaults.LearningRate, "Learning rate")
	epochs       = flag.Int("epochs", defaults.Epochs, "Number of training epochs")
	seed         = flag.Int64("seed", defaults.Seed, "Random seed")
	samples      = flag.Int("samples", defaults.Samples, "Number of synthetic samples when no data set is given")
	normalize    = flag.Bool("normalize", defaults.Normalize, "Z-score attributes before training")
	outputFile   = flag.String("output", defaults.WeightsOut, "Output weights file (JSON)")
	weightLog    = flag.String("weightlog", defaults.WeightLog, "Append all weights after every epoch to this file")
	snapshots    = flag.String("snapshots", defaults.Snapshots, "Write a per-epoch gob snapshot stream to this file")
	verbose      = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := utils.ValidateConfig(config); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:")
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
		os.Exit(2)
	}

	printConfig(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, config)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig starts from the config file, if any, and lets explicitly set
// flags override it.
func loadConfig() (*utils.Config, error) {
	config := utils.DefaultConfig()
	if *configFile != "" {
		var err error
		if config, err = utils.LoadConfig(*configFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			config.Data = *dataFile
		case "classes":
			config.Classes = *classes
		case "hidden":
			config.Hidden = *hidden
		case "lr":
			config.LearningRate = *learningRate
		case "epochs":
			config.Epochs = *epochs
		case "seed":
			config.Seed = *seed
		case "samples":
			config.Samples = *samples
		case "normalize":
			config.Normalize = *normalize
		case "output":
			config.WeightsOut = *outputFile
		case "weightlog":
			config.WeightLog = *weightLog
		case "snapshots":
			config.Snapshots = *snapshots
		}
	})
	return config, nil
}

func printConfig(config *utils.Config) {
	if !utils.Verbose {
		return
	}
	data := config.Data
	if data == "" {
		data = fmt.Sprintf("synthetic (%d samples)", config.Samples)
	}
	fmt.Fprintf(utils.Output, "\nConfiguration:\n")
	fmt.Fprintf(utils.Output, "  Data:          %s\n", data)
	fmt.Fprintf(utils.Output, "  Hidden units:  %d\n", config.Hidden)
	fmt.Fprintf(utils.Output, "  Epochs:        %d\n", config.Epochs)
	fmt.Fprintf(utils.Output, "  Learning Rate: %.4f\n", config.LearningRate)
	fmt.Fprintf(utils.Output, "  Seed:          %d\n", config.Seed)
	fmt.Fprintf(utils.Output, "  Normalize:     %v\n", config.Normalize)
	fmt.Fprintln(utils.Output)
}

func loadInstances(config *utils.Config, rng *rand.Rand) (dataset.Instances, error) {
	if config.Data == "" {
		return dataset.Separable(rng, config.Samples), nil
	}
	return dataset.LoadFile(config.Data, config.Classes)
}

func run(ctx context.Context, config *utils.Config) error {
	stats := &utils.TimingStats{}
	totalStart := time.Now()
	rng := rand.New(rand.NewSource(config.Seed))

	start := time.Now()
	instances, err := loadInstances(config, rng)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		return nn.ErrEmptyTrainingSet
	}
	var scaler *dataset.Scaler
	if config.Normalize {
		s := dataset.Normalize(instances)
		scaler = &s
	}
	stats.DataLoadingTime = time.Since(start)
	inputCount, classCount := len(instances[0].Attributes), len(instances[0].ClassValues)
	utils.Logf(tag, "%d instances, %d attributes, %d classes", len(instances), inputCount, classCount)

	// the network reorders its own copy
	evalSet := instances.Clone()

	start = time.Now()
	hiddenWeights, outputWeights := nn.InitWeights(rng, inputCount, config.Hidden, classCount)
	net, err := nn.NewNetwork(instances, config.Hidden, hiddenWeights, outputWeights)
	if err != nil {
		return errors.Wrap(err, "building network")
	}
	stats.ModelInitTime = time.Since(start)

	observers := []nn.Observer{utils.Reporter{}}
	if config.WeightLog != "" {
		f, err := os.Create(config.WeightLog)
		if err != nil {
			return errors.Wrap(err, "creating weight log")
		}
		defer f.Close()
		observers = append(observers, utils.NewWeightLog(f))
	}
	var stream *snapshot.Writer
	if config.Snapshots != "" {
		f, err := os.Create(config.Snapshots)
		if err != nil {
			return errors.Wrap(err, "creating snapshot stream")
		}
		defer f.Close()
		stream = snapshot.NewWriter(f)
		observers = append(observers, stream)
	}

	utils.Logf(tag, "starting training")
	start = time.Now()
	err = net.Train(ctx, nn.TrainOptions{
		LearningRate: config.LearningRate,
		MaxEpochs:    config.Epochs,
		Seed:         config.Seed,
		Observers:    observers,
	})
	stats.TrainingTime = time.Since(start)
	if stream != nil {
		if closeErr := closeStream(stream, err); closeErr != nil {
			return closeErr
		}
	}
	if err != nil {
		return errors.Wrap(err, "training")
	}

	start = time.Now()
	accuracy := net.Accuracy(evalSet)
	stats.EvaluationTime = time.Since(start)
	utils.Logf(tag, "training set accuracy: %.2f%%", accuracy*100)

	if config.WeightsOut != "" {
		start = time.Now()
		if err := utils.SaveWeights(config.WeightsOut, utils.FromNetwork(net, scaler)); err != nil {
			return err
		}
		stats.SaveTime = time.Since(start)
		utils.Logf(tag, "weights saved to %s", config.WeightsOut)
	}

	stats.TotalTime = time.Since(totalStart)
	utils.PrintTimingStats(stats, config.Epochs)
	return nil
}

// closeStream ends a snapshot stream, recording trainErr when training failed.
// Failing to record trainErr is only logged so that trainErr itself is
// reported by the caller.
func closeStream(stream *snapshot.Writer, trainErr error) error {
	if trainErr != nil {
		if err := stream.SendError(trainErr); err != nil {
			utils.Logf(tag, "could not record failure in snapshot stream: %v", err)
		}
		return nil
	}
	return errors.Wrap(stream.SendDone(), "closing snapshot stream")
}
