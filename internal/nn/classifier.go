// Package nn implements the feed-forward classifier and its checkpoint
// persistence for FFNet.
//
// The package provides:
//   - Arch: Architecture descriptor (input size, output size, hidden widths)
//   - Linear: Fully connected layer
//   - Classifier: Multi-layer perceptron built from an Arch
//   - SaveCheckpoint / LoadCheckpoint: descriptor-driven persistence
//
// Design inspired by PyTorch's nn.Module state-dict convention but adapted
// so that the architecture descriptor travels inside the checkpoint.
package nn

import (
	"fmt"

	"github.com/ffnet-ml/ffnet/internal/tensor"
)

// Classifier is a fully connected feed-forward classifier.
//
// The network is built once from an Arch and its parameter shapes never
// change afterward; only the values do, via training or restore from a
// checkpoint. Hidden layers use ReLU activations; the output layer emits
// raw logits.
type Classifier struct {
	arch   Arch
	hidden []*Linear // In forward-pass order
	output *Linear
}

// NewClassifier constructs a classifier from an architecture descriptor.
//
// The descriptor is the only input: two classifiers built from equal
// descriptors have identical parameter key sets and shapes.
func NewClassifier(arch Arch) (*Classifier, error) {
	if err := arch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid architecture: %w", err)
	}

	c := &Classifier{
		arch:   arch.Clone(),
		hidden: make([]*Linear, 0, len(arch.HiddenLayers)),
	}

	in := arch.InputSize
	for _, width := range arch.HiddenLayers {
		c.hidden = append(c.hidden, NewLinear(in, width))
		in = width
	}
	c.output = NewLinear(in, arch.OutputSize)

	return c, nil
}

// Arch returns a copy of the architecture descriptor.
func (c *Classifier) Arch() Arch {
	return c.arch.Clone()
}

// Forward computes raw logits for a single input vector.
//
// ReLU is applied after each hidden layer; the output layer is left
// un-activated.
func (c *Classifier) Forward(input []float32) []float32 {
	x := input
	for _, layer := range c.hidden {
		x = layer.Forward(x)
		for i, v := range x {
			if v < 0 {
				x[i] = 0
			}
		}
	}
	return c.output.Forward(x)
}

// Predict returns the class index with the highest logit.
func (c *Classifier) Predict(input []float32) int {
	logits := c.Forward(input)

	best := 0
	for i, v := range logits {
		if v > logits[best] {
			best = i
		}
	}
	return best
}

// parameters returns every parameter keyed by its state-dict name.
func (c *Classifier) parameters() map[string]*Parameter {
	params := make(map[string]*Parameter, 2*len(c.hidden)+2)
	for i, layer := range c.hidden {
		params[HiddenWeightKey(i)] = layer.Weight()
		params[HiddenBiasKey(i)] = layer.Bias()
	}
	params[OutputWeightKey] = c.output.Weight()
	params[OutputBiasKey] = c.output.Bias()
	return params
}

// StateDict returns a map of parameter keys to raw tensors.
//
// The key set and per-key shapes equal Arch().ParameterShapes(). The
// returned tensors alias the live parameters; callers that need a
// snapshot should Clone them.
func (c *Classifier) StateDict() map[string]*tensor.RawTensor {
	params := c.parameters()
	stateDict := make(map[string]*tensor.RawTensor, len(params))
	for key, p := range params {
		stateDict[key] = p.Tensor()
	}
	return stateDict
}

// LoadStateDict copies every value from the state dict into the model's
// parameters, matching by key.
//
// The whole dict is validated against the architecture descriptor before
// any value is copied: every key the descriptor implies must be present
// with the right shape and dtype, and no extra key may appear. On any
// disagreement a *MismatchError enumerating all offending keys is
// returned and the model is left unmodified.
func (c *Classifier) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	expected := c.arch.ParameterShapes()
	mismatch := &MismatchError{Arch: c.arch.Clone()}

	for key, shape := range expected {
		raw, ok := stateDict[key]
		if !ok {
			mismatch.Missing = append(mismatch.Missing, key)
			continue
		}
		if !raw.Shape().Equal(shape) {
			mismatch.Shapes = append(mismatch.Shapes, ShapeMismatch{
				Key:  key,
				Want: shape.Clone(),
				Got:  raw.Shape().Clone(),
			})
			continue
		}
		if raw.DType() != tensor.Float32 {
			mismatch.DTypes = append(mismatch.DTypes, DTypeMismatch{
				Key:  key,
				Want: tensor.Float32,
				Got:  raw.DType(),
			})
		}
	}

	for key := range stateDict {
		if _, ok := expected[key]; !ok {
			mismatch.Unexpected = append(mismatch.Unexpected, key)
		}
	}

	if mismatch.hasMismatches() {
		return mismatch.sorted()
	}

	for key, p := range c.parameters() {
		copy(p.Tensor().AsFloat32(), stateDict[key].AsFloat32())
	}

	return nil
}
