package nn

import "github.com/pkg/errors"

// Configuration errors. They are returned wrapped with context; compare with
// errors.Is.
var (
	ErrInvalidKind         = errors.New("invalid node kind")
	ErrEmptyTrainingSet    = errors.New("training set is empty")
	ErrInvalidLayerSize    = errors.New("layer size must be positive")
	ErrDimensionMismatch   = errors.New("dimension mismatch")
	ErrInvalidTrainOptions = errors.New("invalid training options")
)
