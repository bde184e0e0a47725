package utils

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationUS(t *testing.T) {
	d := 1234*time.Microsecond + 567*time.Nanosecond
	got := DurationUS(d)
	if math.Abs(got-1234.567) > 0.001 {
		t.Fatalf("want 1234.567µs, got %.3f", got)
	}
}

// captureOutput redirects Output for the duration of the test.
func captureOutput(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevVerbose := Output, Verbose
	Output, Verbose = &buf, verbose
	t.Cleanup(func() { Output, Verbose = prevOut, prevVerbose })
	return &buf
}

func TestPrintTimingStats(t *testing.T) {
	buf := captureOutput(t, true)
	PrintTimingStats(&TimingStats{
		TotalTime:    4 * time.Second,
		TrainingTime: 2 * time.Second,
	}, 4)

	out := buf.String()
	assert.Contains(t, out, "=== TIMING STATISTICS ===")
	assert.Contains(t, out, "Average time per epoch: 500ms")
	assert.Contains(t, out, "Training: 2s (50.0%)")
	assert.Contains(t, out, "Data loading: 0s (0.0%)")
}

func TestPrintTimingStatsZero(t *testing.T) {
	buf := captureOutput(t, true)
	PrintTimingStats(&TimingStats{}, 0)
	assert.NotContains(t, buf.String(), "Average time per epoch")
	assert.NotContains(t, buf.String(), "NaN")
}

func TestPrintTimingStatsQuiet(t *testing.T) {
	buf := captureOutput(t, false)
	PrintTimingStats(&TimingStats{TotalTime: time.Second}, 1)
	assert.Empty(t, buf.String())
}
