// Copyright 2025 FFNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn is the public API for FFNet's feed-forward classifier and
// its checkpoint persistence.
//
// A Classifier is built from an Arch, the architecture descriptor that
// fully determines every parameter shape. SaveCheckpoint persists the
// descriptor together with the parameter values in one artifact;
// LoadCheckpoint reconstructs an identical model from the artifact
// alone, with no caller-declared architecture.
//
// Example:
//
//	model, err := nn.NewClassifier(nn.Arch{
//	    InputSize:    784,
//	    OutputSize:   10,
//	    HiddenLayers: []int{512, 256, 128},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := nn.SaveCheckpoint(model, "model.ffnet"); err != nil {
//	    log.Fatal(err)
//	}
//
//	restored, err := nn.LoadCheckpoint("model.ffnet")
package nn

import (
	"errors"

	"github.com/ffnet-ml/ffnet/internal/nn"
	"github.com/ffnet-ml/ffnet/internal/serialization"
)

// Arch is the architecture descriptor for a feed-forward classifier.
type Arch = nn.Arch

// Classifier is a fully connected feed-forward classifier.
type Classifier = nn.Classifier

// Parameter represents a learned parameter of a layer.
type Parameter = nn.Parameter

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewClassifier constructs a classifier from an architecture descriptor.
func NewClassifier(arch Arch) (*Classifier, error) {
	return nn.NewClassifier(arch)
}

// NewLinear creates a new linear layer with Xavier initialization.
func NewLinear(inFeatures, outFeatures int) *Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// Checkpoints

// SaveOption configures SaveCheckpoint.
type SaveOption = nn.SaveOption

// WithHalfPrecision stores checkpoint parameters as float16.
func WithHalfPrecision() SaveOption {
	return nn.WithHalfPrecision()
}

// WithMetadata attaches custom key/value metadata to the artifact header.
func WithMetadata(metadata map[string]string) SaveOption {
	return nn.WithMetadata(metadata)
}

// SaveCheckpoint writes a model's architecture descriptor and parameter
// values to a single .ffnet artifact.
func SaveCheckpoint(model *Classifier, path string, opts ...SaveOption) error {
	return nn.SaveCheckpoint(model, path, opts...)
}

// LoadCheckpoint reconstructs a fully populated model from a .ffnet
// artifact, driven only by the descriptor recorded in it.
func LoadCheckpoint(path string) (*Classifier, error) {
	return nn.LoadCheckpoint(path)
}

// Errors

// MismatchError reports every disagreement between a checkpoint's state
// dict and the parameter set its architecture descriptor implies.
type MismatchError = nn.MismatchError

// ShapeMismatch records a per-key expected versus found shape.
type ShapeMismatch = nn.ShapeMismatch

// FormatError reports a structurally malformed checkpoint artifact.
type FormatError = serialization.FormatError

// AsMismatchError unwraps err as a *MismatchError, if it is one.
func AsMismatchError(err error) (*MismatchError, bool) {
	var mismatch *MismatchError
	ok := errors.As(err, &mismatch)
	return mismatch, ok
}

// AsFormatError unwraps err as a *FormatError, if it is one.
func AsFormatError(err error) (*FormatError, bool) {
	var formatErr *FormatError
	ok := errors.As(err, &formatErr)
	return formatErr, ok
}
