// Package snapshot streams per-epoch training state (loss, accuracy and the
// full weight matrices) as a gob message sequence, so a run can be inspected
// or resumed for inference from any epoch.
package snapshot

import (
	"encoding/gob"
	"io"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"mlp/nn"
)

func init() {
	gob.Register(Epoch{})
}

// ErrNoEpochs is returned by Last when a stream holds no epoch.
var ErrNoEpochs = errors.New("snapshot stream has no epochs")

// MessageType defines message types for the snapshot stream
type MessageType int

const (
	MsgEpoch MessageType = iota
	MsgDone
	MsgError
)

// Message is one unit of the stream
type Message struct {
	Type    MessageType
	Payload interface{}
}

// Epoch is one finished epoch. Weight matrices are stored in gonum's binary
// format, laid out as in nn.Network.Weights.
type Epoch struct {
	Epoch    int
	Epochs   int
	MeanLoss float64
	Accuracy float64
	Elapsed  time.Duration
	Hidden   []byte
	Output   []byte
}

// Matrices decodes the weight matrices.
func (e *Epoch) Matrices() (hidden, output *mat.Dense, err error) {
	hidden, output = &mat.Dense{}, &mat.Dense{}
	if err := hidden.UnmarshalBinary(e.Hidden); err != nil {
		return nil, nil, errors.Wrapf(err, "decoding hidden weights of epoch %d", e.Epoch)
	}
	if err := output.UnmarshalBinary(e.Output); err != nil {
		return nil, nil, errors.Wrapf(err, "decoding output weights of epoch %d", e.Epoch)
	}
	return hidden, output, nil
}

// Writer encodes a snapshot stream. It is an nn.Observer.
type Writer struct {
	encoder *gob.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{encoder: gob.NewEncoder(w)}
}

// Send sends a message
func (w *Writer) Send(msg *Message) error {
	return w.encoder.Encode(msg)
}

// SendEpoch records r. Reports without weights are rejected.
func (w *Writer) SendEpoch(r nn.EpochReport) error {
	if r.Hidden == nil || r.Output == nil {
		return errors.Errorf("epoch %d report carries no weights", r.Epoch)
	}
	hidden, err := r.Hidden.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encoding hidden weights")
	}
	output, err := r.Output.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encoding output weights")
	}
	return w.Send(&Message{
		Type: MsgEpoch,
		Payload: Epoch{
			Epoch:    r.Epoch,
			Epochs:   r.Epochs,
			MeanLoss: r.MeanLoss,
			Accuracy: r.Accuracy,
			Elapsed:  r.Elapsed,
			Hidden:   hidden,
			Output:   output,
		},
	})
}

func (w *Writer) ObserveEpoch(r nn.EpochReport) error {
	return errors.Wrap(w.SendEpoch(r), "writing snapshot")
}

// SendDone signals completion
func (w *Writer) SendDone() error {
	return w.Send(&Message{Type: MsgDone})
}

// SendError records that the run failed
func (w *Writer) SendError(err error) error {
	return w.Send(&Message{
		Type:    MsgError,
		Payload: err.Error(),
	})
}

// Reader decodes a snapshot stream
type Reader struct {
	decoder *gob.Decoder
}

func NewReader(r io.Reader) *Reader {
	return &Reader{decoder: gob.NewDecoder(r)}
}

// Receive receives a message
func (r *Reader) Receive() (*Message, error) {
	var msg Message
	if err := r.decoder.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReceiveEpoch returns the next epoch, io.EOF once the writer is done, or the
// error the writer recorded.
func (r *Reader) ReceiveEpoch() (*Epoch, error) {
	msg, err := r.Receive()
	if err != nil {
		return nil, err
	}
	switch msg.Type {
	case MsgError:
		return nil, errors.Errorf("remote error: %v", msg.Payload)
	case MsgDone:
		return nil, io.EOF
	case MsgEpoch:
	default:
		return nil, errors.Errorf("expected epoch message, got %d", msg.Type)
	}
	payload, ok := msg.Payload.(Epoch)
	if !ok {
		return nil, errors.Errorf("invalid epoch payload type %T", msg.Payload)
	}
	return &payload, nil
}

// Last reads r to the end and returns the final epoch. A stream cut off
// after a whole message is accepted.
func Last(r io.Reader) (*Epoch, error) {
	reader := NewReader(r)
	var last *Epoch
	for {
		e, err := reader.ReceiveEpoch()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		last = e
	}
	if last == nil {
		return nil, ErrNoEpochs
	}
	return last, nil
}
