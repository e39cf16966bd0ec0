// Package serialization implements the .ffnet checkpoint container format.
//
// Layout:
//
//	[0:4]   magic bytes "FFNT"
//	[4:8]   format version (uint32, little-endian)
//	[8:12]  flags (uint32, little-endian)
//	[12:20] header size in bytes (uint64, little-endian)
//	[20:..] JSON header
//	        zero padding to the next 64-byte boundary
//	[..:..] raw tensor data, in header order
//
// The JSON header carries the architecture descriptor, per-tensor
// metadata (name, dtype, shape, offset, size) and a SHA-256 checksum of
// the tensor data section.
package serialization

import (
	"time"

	"github.com/ffnet-ml/ffnet/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "FFNT"
	FormatVersion   = 1
	HeaderAlignment = 64 // Align tensor data to 64 bytes
	preludeSize     = 4 + 4 + 4 + 8
)

// Flags for the .ffnet format.
const (
	FlagHasMetadata   uint32 = 1 << 0 // bit 0: custom metadata included
	FlagHalfPrecision uint32 = 1 << 1 // bit 1: parameters stored as float16
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat16 = "float16"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
)

// Header represents the JSON header in a .ffnet file.
type Header struct {
	FormatVersion int               `json:"format_version"`     // Version of the .ffnet format
	FFNetVersion  string            `json:"ffnet_version"`      // Version of FFNet that created this file
	CreatedAt     time.Time         `json:"created_at"`         // When the file was created
	Arch          *ArchMeta         `json:"arch"`               // Architecture descriptor
	Tensors       []TensorMeta      `json:"tensors"`            // Tensor metadata
	Checksum      string            `json:"checksum"`           // SHA-256 of the tensor data, hex-encoded
	Metadata      map[string]string `json:"metadata,omitempty"` // Custom metadata
}

// ArchMeta is the architecture descriptor as persisted in the header.
type ArchMeta struct {
	InputSize    int   `json:"input_size"`
	OutputSize   int   `json:"output_size"`
	HiddenLayers []int `json:"hidden_layers"`
}

// TensorMeta describes a tensor in the .ffnet file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "hidden_layers.0.weight")
	DType  string `json:"dtype"`  // Data type (e.g., "float32", "float16")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// dtypeToString converts tensor.DataType to string representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float16:
		return DTypeFloat16
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	default:
		return "unknown"
	}
}

// stringToDtype converts string representation to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat16:
		return tensor.Float16, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	default:
		return 0, false
	}
}
