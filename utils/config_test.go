package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultConfig()))
}

func TestValidateConfigCollectsAll(t *testing.T) {
	config := &Config{
		Hidden:       0,
		LearningRate: math.NaN(),
		Epochs:       -1,
		Classes:      -2,
	}
	err := ValidateConfig(config)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
	assert.Contains(t, err.Error(), "hidden layer size")
	assert.Contains(t, err.Error(), "sample count")
}

func TestValidateConfigDataFile(t *testing.T) {
	config := DefaultConfig()
	config.Samples = 0
	assert.Error(t, ValidateConfig(config))
	config.Data = "iris.csv"
	assert.NoError(t, ValidateConfig(config))
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	yaml := `hidden: 8
learning_rate: 0.05
seed: 42
data: iris.csv
normalize: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, config.Hidden)
	assert.Equal(t, 0.05, config.LearningRate)
	assert.Equal(t, int64(42), config.Seed)
	assert.Equal(t, "iris.csv", config.Data)
	assert.True(t, config.Normalize)

	// untouched keys keep defaults
	assert.Equal(t, DefaultConfig().Epochs, config.Epochs)
	assert.Equal(t, DefaultConfig().WeightsOut, config.WeightsOut)
}

func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"epochs": 3, "weight_log": "w.txt"}`), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, config.Epochs)
	assert.Equal(t, "w.txt", config.WeightLog)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
