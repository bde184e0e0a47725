package utils

import (
	"fmt"

	"mlp/nn"
)

// Reporter prints one progress line per training epoch to Output.
type Reporter struct{}

func (Reporter) ObserveEpoch(r nn.EpochReport) error {
	if !Verbose {
		return nil
	}
	fmt.Fprintf(Output, "Epoch %d/%d | Loss: %.3e | Accuracy: %.2f%% | Time: %.2fs\n",
		r.Epoch+1, r.Epochs, r.MeanLoss, r.Accuracy*100, r.Elapsed.Seconds())
	return nil
}

// Logf writes a tagged status line, e.g. "[TRAIN] loaded 150 instances".
func Logf(tag, format string, args ...interface{}) {
	if !Verbose {
		return
	}
	fmt.Fprintf(Output, "[%s] %s\n", tag, fmt.Sprintf(format, args...))
}
