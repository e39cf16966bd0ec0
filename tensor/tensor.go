// Copyright 2025 FFNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for FFNet's host-memory tensors.
//
// The package defines the types checkpoint state dictionaries are built
// from:
//   - RawTensor: contiguous typed buffer with a shape
//   - Shape, DataType: core type definitions
//
// Example:
//
//	raw, err := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
package tensor

import (
	"github.com/ffnet-ml/ffnet/internal/tensor"
)

// Type aliases for public API

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float16 DataType = tensor.Float16
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation.
type RawTensor = tensor.RawTensor

// NewRaw creates a new zero-initialized RawTensor with the given shape
// and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromFloat32 creates a Float32 RawTensor from a value slice.
func FromFloat32(values []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat32(values, shape)
}
