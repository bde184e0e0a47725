package utils

import (
	"math"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Config holds training configuration
type Config struct {
	Hidden       int     `mapstructure:"hidden"`
	LearningRate float64 `mapstructure:"learning_rate"`
	Epochs       int     `mapstructure:"epochs"`
	Seed         int64   `mapstructure:"seed"`

	// Data is a CSV file of attributes followed by a class label. When empty,
	// Samples synthetic separable instances are generated instead.
	Data      string `mapstructure:"data"`
	Classes   int    `mapstructure:"classes"`
	Normalize bool   `mapstructure:"normalize"`
	Samples   int    `mapstructure:"samples"`

	WeightsOut string `mapstructure:"weights_out"`
	WeightLog  string `mapstructure:"weight_log"`
	Snapshots  string `mapstructure:"snapshots"`
}

// DefaultConfig returns the settings used when neither a config file nor a
// flag says otherwise.
func DefaultConfig() *Config {
	return &Config{
		Hidden:       4,
		LearningRate: 0.01,
		Epochs:       20,
		Seed:         1,
		Samples:      200,
		WeightsOut:   "weights.json",
	}
}

// LoadConfig reads a YAML, JSON or TOML file (picked by extension) on top of
// DefaultConfig. Keys missing from the file keep their default.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}
	return config, nil
}

// ValidateConfig validates training configuration. Every problem found is
// reported; use multierr.Errors to split them.
func ValidateConfig(config *Config) error {
	var err error
	if config.Hidden <= 0 {
		err = multierr.Append(err, errors.New("hidden layer size must be positive"))
	}
	if config.LearningRate <= 0 || math.IsInf(config.LearningRate, 0) || math.IsNaN(config.LearningRate) {
		err = multierr.Append(err, errors.Errorf("learning rate must be positive and finite, got %v", config.LearningRate))
	}
	if config.Epochs < 0 {
		err = multierr.Append(err, errors.New("epochs must not be negative"))
	}
	if config.Classes < 0 {
		err = multierr.Append(err, errors.New("classes must not be negative"))
	}
	if config.Data == "" && config.Samples <= 0 {
		err = multierr.Append(err, errors.New("either a data file or a positive sample count is required"))
	}
	return err
}
