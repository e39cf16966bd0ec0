package nn

import (
	"fmt"

	"github.com/ffnet-ml/ffnet/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input vector with in_features elements
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output vector with out_features elements
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]
}

// NewLinear creates a new Linear layer.
func NewLinear(inFeatures, outFeatures int) *Linear {
	// Weight: [out_features, in_features]
	weightShape := tensor.Shape{outFeatures, inFeatures}
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, weightShape))

	// Bias: [out_features]
	bias := NewParameter("bias", Zeros(tensor.Shape{outFeatures}))

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
	}
}

// Forward computes the output of the linear layer.
//
// Performs: y = x @ W.T + b
func (l *Linear) Forward(input []float32) []float32 {
	if len(input) != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d",
			l.inFeatures, len(input)))
	}

	w := l.weight.Tensor().AsFloat32() // row-major [out_features, in_features]
	b := l.bias.Tensor().AsFloat32()   // [out_features]

	output := make([]float32, l.outFeatures)
	for o := 0; o < l.outFeatures; o++ {
		row := w[o*l.inFeatures : (o+1)*l.inFeatures]
		sum := b[o]
		for i, x := range input {
			sum += row[i] * x
		}
		output[o] = sum
	}

	return output
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
