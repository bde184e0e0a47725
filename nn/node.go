package nn

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Kind tags the role a Node plays. The set is closed; every Node operation
// dispatches on it.
type Kind int

const (
	Input Kind = iota
	BiasToHidden
	Hidden
	BiasToOutput
	Output
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case BiasToHidden:
		return "bias-to-hidden"
	case Hidden:
		return "hidden"
	case BiasToOutput:
		return "bias-to-output"
	case Output:
		return "output"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) valid() bool {
	return k >= Input && k <= Output
}

func (k Kind) hasEdges() bool {
	return k == Hidden || k == Output
}

// Edge is a weighted connection from Source into the Node holding it. The
// Source is not owned by the edge.
type Edge struct {
	Source *Node
	Weight float64
}

// Node is a single unit of any layer. Operations that make no sense for a
// Node's kind are silently ignored.
type Node struct {
	kind  Kind
	edges []Edge

	input      float64
	activation float64
	delta      float64
}

// NewNode returns a Node of the given kind. Hidden and Output nodes start
// with an empty, non-nil edge list; the others have none.
func NewNode(kind Kind) (*Node, error) {
	if !kind.valid() {
		return nil, errors.Wrapf(ErrInvalidKind, "kind %d", int(kind))
	}
	n := &Node{kind: kind}
	if kind.hasEdges() {
		n.edges = []Edge{}
	}
	return n, nil
}

func (n *Node) Kind() Kind { return n.kind }

// Delta returns the error signal from the last backward pass.
func (n *Node) Delta() float64 { return n.delta }

// Edges returns a copy of the incoming edges, or nil for Input and Bias nodes.
func (n *Node) Edges() []Edge {
	if n.edges == nil {
		return nil
	}
	return append(make([]Edge, 0, len(n.edges)), n.edges...)
}

// Weight returns the weight of the i'th incoming edge.
func (n *Node) Weight(i int) float64 {
	return n.edges[i].Weight
}

// connect appends an incoming edge from src. Only the Network wires nodes.
func (n *Node) connect(src *Node, weight float64) {
	if !n.kind.hasEdges() {
		return
	}
	n.edges = append(n.edges, Edge{Source: src, Weight: weight})
}

// SetInput stores an attribute value. It does nothing unless n is an Input node.
func (n *Node) SetInput(value float64) {
	if n.kind == Input {
		n.input = value
	}
}

// Output is the value n feeds downstream. Bias nodes always yield 1.
func (n *Node) Output() float64 {
	switch n.kind {
	case Input:
		return n.input
	case BiasToHidden, BiasToOutput:
		return 1.0
	}
	return n.activation
}

func (n *Node) weightedSum() float64 {
	var sum float64
	for _, e := range n.edges {
		sum += e.Weight * e.Source.Output()
	}
	return sum
}

// CalculateOutput refreshes the activation of a Hidden (ReLU) or Output node.
// An Output node only gets exp(sum) here; the Network divides by the layer
// total afterwards to finish the softmax.
func (n *Node) CalculateOutput() {
	switch n.kind {
	case Hidden:
		n.activation = math.Max(0, n.weightedSum())
	case Output:
		n.activation = math.Exp(n.weightedSum())
	}
}

// Divide completes softmax normalisation on an Output node.
func (n *Node) Divide(sum float64) {
	if n.kind == Output {
		n.activation /= sum
	}
}

// CalculateDelta computes the error signal.
//
// For an Output node target is this node's one-hot component and downstream
// is ignored: delta = target - activation, the softmax/cross-entropy pairing.
//
// For a Hidden node target is ignored. The ReLU derivative is taken from a
// freshly computed weighted sum (0 at and below zero) and multiplied by the
// sum over downstream of (weight of their edge from n) * their delta. The
// downstream deltas must already be computed and their weights not yet
// updated.
func (n *Node) CalculateDelta(target float64, downstream []*Node) {
	switch n.kind {
	case Output:
		n.delta = target - n.activation
	case Hidden:
		var derivative float64
		if n.weightedSum() > 0 {
			derivative = 1
		}
		var factor float64
		for _, d := range downstream {
			factor += d.backWeight(n) * d.delta
		}
		n.delta = derivative * factor
	}
}

// backWeight finds the weight of the edge from src. A missing edge means the
// graph was wired wrong.
func (n *Node) backWeight(src *Node) float64 {
	for _, e := range n.edges {
		if e.Source == src {
			return e.Weight
		}
	}
	panic(fmt.Sprintf("nn: %s node has no edge from %s node", n.kind, src.kind))
}

// UpdateWeight applies w += learningRate * source output * delta to every
// incoming edge of a Hidden or Output node.
func (n *Node) UpdateWeight(learningRate float64) {
	if !n.kind.hasEdges() {
		return
	}
	for i := range n.edges {
		n.edges[i].Weight += learningRate * n.edges[i].Source.Output() * n.delta
	}
}
