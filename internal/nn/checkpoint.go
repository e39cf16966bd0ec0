package nn

import (
	"fmt"

	"github.com/ffnet-ml/ffnet/internal/serialization"
	"github.com/ffnet-ml/ffnet/internal/tensor"
)

// SaveOption configures SaveCheckpoint.
type SaveOption func(*saveConfig)

type saveConfig struct {
	half     bool
	metadata map[string]string
}

// WithHalfPrecision stores parameters as float16 instead of float32.
//
// This halves the artifact size at the cost of precision: values are
// rounded to the nearest representable half-precision float. Loading
// converts them back to float32.
func WithHalfPrecision() SaveOption {
	return func(c *saveConfig) { c.half = true }
}

// WithMetadata attaches custom key/value metadata to the artifact header.
func WithMetadata(metadata map[string]string) SaveOption {
	return func(c *saveConfig) { c.metadata = metadata }
}

// SaveCheckpoint writes a model's architecture descriptor and current
// parameter values to a single .ffnet artifact at path.
//
// The descriptor recorded in the header and the parameter tensors are
// captured from the same live model in one pass, so the artifact is
// always internally consistent. The write is atomic: either the full
// artifact lands at path or the previous file contents survive.
//
// Example:
//
//	model, _ := nn.NewClassifier(nn.Arch{InputSize: 784, OutputSize: 10, HiddenLayers: []int{512, 256, 128}})
//	err := nn.SaveCheckpoint(model, "model.ffnet")
func SaveCheckpoint(model *Classifier, path string, opts ...SaveOption) error {
	var cfg saveConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	arch := model.Arch()
	archMeta := serialization.ArchMeta{
		InputSize:    arch.InputSize,
		OutputSize:   arch.OutputSize,
		HiddenLayers: arch.HiddenLayers,
	}

	stateDict := model.StateDict()
	if cfg.half {
		converted := make(map[string]*tensor.RawTensor, len(stateDict))
		for key, raw := range stateDict {
			converted[key] = raw.ToFloat16()
		}
		stateDict = converted
	}

	if err := serialization.WriteFile(path, archMeta, stateDict, cfg.metadata); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	return nil
}

// LoadCheckpoint reads a .ffnet artifact and returns a freshly
// constructed, fully populated Classifier.
//
// Reconstruction is driven entirely by the architecture descriptor
// recorded in the artifact: the caller never declares layer widths. The
// restored state dict is then copied into the new model, matching by
// key; any disagreement between descriptor and parameters is reported
// as a *MismatchError enumerating every offending key. On any error no
// model is returned.
//
// Example:
//
//	model, err := nn.LoadCheckpoint("model.ffnet")
//	if err != nil {
//	    var mismatch *nn.MismatchError
//	    if errors.As(err, &mismatch) {
//	        // inspect mismatch.Keys()
//	    }
//	}
func LoadCheckpoint(path string) (*Classifier, error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	archMeta := reader.Arch()
	arch := Arch{
		InputSize:    archMeta.InputSize,
		OutputSize:   archMeta.OutputSize,
		HiddenLayers: archMeta.HiddenLayers,
	}

	model, err := NewClassifier(arch)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", path, err)
	}

	stateDict, err := reader.ReadStateDict()
	if err != nil {
		return nil, err
	}

	// Half-precision artifacts come back as float16; the model's
	// parameters are float32.
	for key, raw := range stateDict {
		if raw.DType() == tensor.Float16 {
			stateDict[key] = raw.ToFloat32()
		}
	}

	if err := model.LoadStateDict(stateDict); err != nil {
		return nil, err
	}

	return model, nil
}
