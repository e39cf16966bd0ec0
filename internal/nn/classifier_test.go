package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ffnet-ml/ffnet/internal/tensor"
)

func TestNewClassifierInvalidArch(t *testing.T) {
	_, err := NewClassifier(Arch{InputSize: 0, OutputSize: 10})
	require.Error(t, err)
}

func TestNewClassifierDescriptorCopied(t *testing.T) {
	hidden := []int{32, 16}
	model, err := NewClassifier(Arch{InputSize: 8, OutputSize: 4, HiddenLayers: hidden})
	require.NoError(t, err)

	// Mutating the caller's slice must not affect the model.
	hidden[0] = 1
	assert.Equal(t, 32, model.Arch().HiddenLayers[0])

	// Mutating the returned descriptor must not affect the model either.
	model.Arch().HiddenLayers[1] = 1
	assert.Equal(t, 16, model.Arch().HiddenLayers[1])
}

// Two models independently constructed from the same descriptor must
// have identical key sets and per-key shapes.
func TestStateDictShapeDeterminism(t *testing.T) {
	arch := Arch{InputSize: 784, OutputSize: 10, HiddenLayers: []int{512, 256, 128}}

	m1, err := NewClassifier(arch)
	require.NoError(t, err)
	m2, err := NewClassifier(arch)
	require.NoError(t, err)

	sd1 := m1.StateDict()
	sd2 := m2.StateDict()

	require.Len(t, sd2, len(sd1))
	for key, raw1 := range sd1 {
		raw2, ok := sd2[key]
		require.Truef(t, ok, "key %q missing from second model", key)
		assert.Truef(t, raw1.Shape().Equal(raw2.Shape()),
			"key %q: shapes %v and %v differ", key, raw1.Shape(), raw2.Shape())
	}
}

func TestStateDictMatchesParameterShapes(t *testing.T) {
	arch := Arch{InputSize: 20, OutputSize: 3, HiddenLayers: []int{7, 5}}
	model, err := NewClassifier(arch)
	require.NoError(t, err)

	expected := arch.ParameterShapes()
	stateDict := model.StateDict()

	require.Len(t, stateDict, len(expected))
	for key, shape := range expected {
		raw, ok := stateDict[key]
		require.Truef(t, ok, "missing key %q", key)
		assert.Truef(t, raw.Shape().Equal(shape), "key %q: got %v, want %v", key, raw.Shape(), shape)
		assert.Equal(t, tensor.Float32, raw.DType())
	}
}

func TestLoadStateDictRestoresValues(t *testing.T) {
	arch := Arch{InputSize: 4, OutputSize: 2, HiddenLayers: []int{3}}

	src, err := NewClassifier(arch)
	require.NoError(t, err)
	dst, err := NewClassifier(arch)
	require.NoError(t, err)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	srcDict := src.StateDict()
	for key, raw := range dst.StateDict() {
		assert.Equalf(t, srcDict[key].AsFloat32(), raw.AsFloat32(), "key %q", key)
	}
}

// A checkpoint saved from hidden layers [512 256 128] restored into a
// model with hidden layers [400 200 100] must enumerate exactly the 7
// mismatching keys. output.bias matches (same class count) and must not
// appear.
func TestLoadStateDictEnumeratesShapeMismatches(t *testing.T) {
	saved, err := NewClassifier(Arch{InputSize: 784, OutputSize: 10, HiddenLayers: []int{512, 256, 128}})
	require.NoError(t, err)

	restored, err := NewClassifier(Arch{InputSize: 784, OutputSize: 10, HiddenLayers: []int{400, 200, 100}})
	require.NoError(t, err)

	err = restored.LoadStateDict(saved.StateDict())
	require.Error(t, err)

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)

	assert.Empty(t, mismatch.Missing)
	assert.Empty(t, mismatch.Unexpected)
	assert.Empty(t, mismatch.DTypes)

	wantKeys := []string{
		"hidden_layers.0.bias",
		"hidden_layers.0.weight",
		"hidden_layers.1.bias",
		"hidden_layers.1.weight",
		"hidden_layers.2.bias",
		"hidden_layers.2.weight",
		"output.weight",
	}
	assert.Equal(t, wantKeys, mismatch.Keys())
	assert.NotContains(t, mismatch.Keys(), "output.bias")

	// Expected vs found shapes are reported per key.
	for _, sm := range mismatch.Shapes {
		if sm.Key == "hidden_layers.0.weight" {
			assert.True(t, sm.Want.Equal(tensor.Shape{400, 784}))
			assert.True(t, sm.Got.Equal(tensor.Shape{512, 784}))
		}
	}
	assert.Contains(t, err.Error(), "hidden_layers.0.weight")
	assert.Contains(t, err.Error(), "output.weight")
	assert.NotContains(t, err.Error(), "output.bias")
}

func TestLoadStateDictMissingAndUnexpectedKeys(t *testing.T) {
	model, err := NewClassifier(Arch{InputSize: 4, OutputSize: 2, HiddenLayers: []int{3}})
	require.NoError(t, err)

	stateDict := model.StateDict()
	extra, err := tensor.FromFloat32([]float32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)

	bad := map[string]*tensor.RawTensor{
		"hidden_layers.0.weight": stateDict["hidden_layers.0.weight"],
		"output.weight":          stateDict["output.weight"],
		"output.bias":            stateDict["output.bias"],
		"hidden_layers.1.weight": extra, // Not implied by the descriptor
	}

	loadErr := model.LoadStateDict(bad)
	var mismatch *MismatchError
	require.ErrorAs(t, loadErr, &mismatch)

	assert.Equal(t, []string{"hidden_layers.0.bias"}, mismatch.Missing)
	assert.Equal(t, []string{"hidden_layers.1.weight"}, mismatch.Unexpected)
}

func TestLoadStateDictNoPartialRestore(t *testing.T) {
	arch := Arch{InputSize: 4, OutputSize: 2, HiddenLayers: []int{3}}
	model, err := NewClassifier(arch)
	require.NoError(t, err)

	before := make(map[string][]float32)
	for key, raw := range model.StateDict() {
		before[key] = append([]float32(nil), raw.AsFloat32()...)
	}

	// Valid tensors for most keys, a shape mismatch on one.
	src, err := NewClassifier(arch)
	require.NoError(t, err)
	bad := src.StateDict()
	wrong, err := tensor.FromFloat32(make([]float32, 6), tensor.Shape{2, 3})
	require.NoError(t, err)
	bad["hidden_layers.0.weight"] = wrong

	require.Error(t, model.LoadStateDict(bad))

	// No key may have been modified.
	for key, raw := range model.StateDict() {
		assert.Equalf(t, before[key], raw.AsFloat32(), "key %q modified by failed restore", key)
	}
}

func TestLoadStateDictDTypeMismatch(t *testing.T) {
	model, err := NewClassifier(Arch{InputSize: 2, OutputSize: 2})
	require.NoError(t, err)

	wrongType, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Int32)
	require.NoError(t, err)
	bias, err := tensor.FromFloat32([]float32{0, 0}, tensor.Shape{2})
	require.NoError(t, err)

	loadErr := model.LoadStateDict(map[string]*tensor.RawTensor{
		"output.weight": wrongType,
		"output.bias":   bias,
	})

	var mismatch *MismatchError
	require.ErrorAs(t, loadErr, &mismatch)
	require.Len(t, mismatch.DTypes, 1)
	assert.Equal(t, "output.weight", mismatch.DTypes[0].Key)
	assert.Equal(t, tensor.Float32, mismatch.DTypes[0].Want)
	assert.Equal(t, tensor.Int32, mismatch.DTypes[0].Got)
}

func TestForwardKnownValues(t *testing.T) {
	// 2 -> 2 -> 2 network with hand-set weights.
	model, err := NewClassifier(Arch{InputSize: 2, OutputSize: 2, HiddenLayers: []int{2}})
	require.NoError(t, err)

	hw, err := tensor.FromFloat32([]float32{
		1, 0, // unit 0 passes x0
		0, -1, // unit 1 negates x1 (ReLU clamps it for positive x1)
	}, tensor.Shape{2, 2})
	require.NoError(t, err)
	hb, err := tensor.FromFloat32([]float32{0, 0}, tensor.Shape{2})
	require.NoError(t, err)
	ow, err := tensor.FromFloat32([]float32{
		2, 0,
		0, 3,
	}, tensor.Shape{2, 2})
	require.NoError(t, err)
	ob, err := tensor.FromFloat32([]float32{1, -1}, tensor.Shape{2})
	require.NoError(t, err)

	require.NoError(t, model.LoadStateDict(map[string]*tensor.RawTensor{
		"hidden_layers.0.weight": hw,
		"hidden_layers.0.bias":   hb,
		"output.weight":          ow,
		"output.bias":            ob,
	}))

	logits := model.Forward([]float32{3, 5})
	// Hidden: relu([3, -5]) = [3, 0]. Output: [2*3+1, 3*0-1] = [7, -1].
	require.Len(t, logits, 2)
	assert.Equal(t, float32(7), logits[0])
	assert.Equal(t, float32(-1), logits[1])

	assert.Equal(t, 0, model.Predict([]float32{3, 5}))
}
