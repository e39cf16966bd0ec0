package nn

import (
	"fmt"

	"github.com/ffnet-ml/ffnet/internal/tensor"
)

// Parameter key naming convention. Hidden layers are indexed in
// forward-pass order; the final projection uses a fixed key pair.
const (
	OutputWeightKey = "output.weight"
	OutputBiasKey   = "output.bias"

	hiddenKeyFormat = "hidden_layers.%d.%s"
)

// HiddenWeightKey returns the parameter key for hidden layer i's weight.
func HiddenWeightKey(i int) string {
	return fmt.Sprintf(hiddenKeyFormat, i, "weight")
}

// HiddenBiasKey returns the parameter key for hidden layer i's bias.
func HiddenBiasKey(i int) string {
	return fmt.Sprintf(hiddenKeyFormat, i, "bias")
}

// Arch is the architecture descriptor for a feed-forward classifier.
//
// It is the minimal set of integers that fully determines the shape of
// every weight and bias tensor in the model: the descriptor is the sole
// input to model construction and the sole record of architecture in a
// persisted checkpoint. No other state affects parameter shapes.
//
// Example:
//
//	arch := nn.Arch{InputSize: 784, OutputSize: 10, HiddenLayers: []int{512, 256, 128}}
//	model, err := nn.NewClassifier(arch)
type Arch struct {
	InputSize    int   // Dimensionality of the flattened input vector
	OutputSize   int   // Number of output classes
	HiddenLayers []int // Hidden layer widths, in forward-pass order
}

// Validate checks that every dimension of the descriptor is positive.
func (a Arch) Validate() error {
	if a.InputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", a.InputSize)
	}
	if a.OutputSize <= 0 {
		return fmt.Errorf("output size must be positive, got %d", a.OutputSize)
	}
	for i, width := range a.HiddenLayers {
		if width <= 0 {
			return fmt.Errorf("hidden layer %d width must be positive, got %d", i, width)
		}
	}
	return nil
}

// Equal checks if two descriptors describe the same architecture.
func (a Arch) Equal(other Arch) bool {
	if a.InputSize != other.InputSize || a.OutputSize != other.OutputSize {
		return false
	}
	if len(a.HiddenLayers) != len(other.HiddenLayers) {
		return false
	}
	for i := range a.HiddenLayers {
		if a.HiddenLayers[i] != other.HiddenLayers[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the descriptor that shares no state with the
// original.
func (a Arch) Clone() Arch {
	clone := a
	clone.HiddenLayers = append([]int(nil), a.HiddenLayers...)
	return clone
}

// ParameterShapes returns the expected key set and per-key tensor shape
// for a model built from this descriptor.
//
// Weights have shape [out_features, in_features] and biases [out_features],
// matching Linear's layout. The result is derived from the descriptor
// alone, so two models built from equal descriptors always agree on keys
// and shapes.
func (a Arch) ParameterShapes() map[string]tensor.Shape {
	shapes := make(map[string]tensor.Shape, 2*len(a.HiddenLayers)+2)

	in := a.InputSize
	for i, width := range a.HiddenLayers {
		shapes[HiddenWeightKey(i)] = tensor.Shape{width, in}
		shapes[HiddenBiasKey(i)] = tensor.Shape{width}
		in = width
	}

	shapes[OutputWeightKey] = tensor.Shape{a.OutputSize, in}
	shapes[OutputBiasKey] = tensor.Shape{a.OutputSize}

	return shapes
}

// String returns a compact description like "784->512->256->128->10".
func (a Arch) String() string {
	s := fmt.Sprintf("%d", a.InputSize)
	for _, width := range a.HiddenLayers {
		s += fmt.Sprintf("->%d", width)
	}
	return s + fmt.Sprintf("->%d", a.OutputSize)
}
