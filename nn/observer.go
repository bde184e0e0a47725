package nn

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// EpochReport summarises one finished training epoch.
type EpochReport struct {
	Epoch    int // zero based
	Epochs   int
	MeanLoss float64
	Accuracy float64
	Elapsed  time.Duration

	// Weight snapshots, laid out as in Network.Weights.
	Hidden *mat.Dense
	Output *mat.Dense
}

// Observer is notified after every training epoch. Returning an error aborts
// training.
type Observer interface {
	ObserveEpoch(EpochReport) error
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(EpochReport) error

func (f ObserverFunc) ObserveEpoch(r EpochReport) error { return f(r) }
