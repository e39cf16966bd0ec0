package nn

import (
	"github.com/ffnet-ml/ffnet/internal/tensor"
)

// Parameter represents a learned parameter of a layer, typically a
// weight matrix or bias vector.
type Parameter struct {
	name string            // Parameter name (e.g., "weight", "bias")
	raw  *tensor.RawTensor // The parameter tensor
}

// NewParameter creates a new parameter.
//
// The tensor should be initialized before creating the Parameter.
func NewParameter(name string, raw *tensor.RawTensor) *Parameter {
	return &Parameter{
		name: name,
		raw:  raw,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.RawTensor {
	return p.raw
}
