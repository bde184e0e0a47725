// Package dataset holds the labelled records a network trains on and the
// helpers that read them from disk.
package dataset

import (
	"github.com/pkg/errors"
)

var (
	ErrNotOneHot     = errors.New("class values are not one-hot")
	ErrLabelOutRange = errors.New("class label out of range")
)

// Instance is one labelled example: a fixed-length attribute vector and a
// one-hot class vector.
type Instance struct {
	Attributes  []float64
	ClassValues []float64
}

type Instances []Instance

// OneHot returns a vector of length classes with a single 1 at label.
func OneHot(label, classes int) ([]float64, error) {
	if label < 0 || label >= classes {
		return nil, errors.Wrapf(ErrLabelOutRange, "label %d, classes %d", label, classes)
	}
	v := make([]float64, classes)
	v[label] = 1
	return v, nil
}

// Class returns the index of the entry equal to 1, or -1 when there is none.
func (in Instance) Class() int {
	for i, v := range in.ClassValues {
		if v == 1 {
			return i
		}
	}
	return -1
}

// Validate checks that ClassValues holds exactly one 1 and zeros elsewhere.
func (in Instance) Validate() error {
	ones := 0
	for i, v := range in.ClassValues {
		switch v {
		case 1:
			ones++
		case 0:
		default:
			return errors.Wrapf(ErrNotOneHot, "entry %d is %v", i, v)
		}
	}
	if ones != 1 {
		return errors.Wrapf(ErrNotOneHot, "%d entries set", ones)
	}
	return nil
}

// Clone returns a deep copy, so that shuffling or normalising the copy
// leaves the receiver untouched.
func (ins Instances) Clone() Instances {
	out := make(Instances, len(ins))
	for i, in := range ins {
		out[i] = Instance{
			Attributes:  append([]float64(nil), in.Attributes...),
			ClassValues: append([]float64(nil), in.ClassValues...),
		}
	}
	return out
}
