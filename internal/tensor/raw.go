package tensor

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/x448/float16"
)

// RawTensor is the low-level tensor representation: a contiguous byte
// buffer plus shape and runtime type information. All tensors live in
// host memory.
type RawTensor struct {
	data  []byte
	shape Shape
	dtype DataType
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	byteSize := shape.NumElements() * dtype.Size()

	return &RawTensor{
		data:  make([]byte, byteSize),
		shape: shape.Clone(),
		dtype: dtype,
	}, nil
}

// FromFloat32 creates a Float32 RawTensor from a value slice.
// The values are copied; the tensor does not alias the input slice.
func FromFloat32(values []float32, shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("shape %v requires %d elements, got %d",
			shape, shape.NumElements(), len(values))
	}

	raw, err := NewRaw(shape, Float32)
	if err != nil {
		return nil, err
	}
	copy(raw.AsFloat32(), values)
	return raw, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	if len(r.data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Clone returns a deep copy of the tensor.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:  data,
		shape: r.shape.Clone(),
		dtype: r.dtype,
	}
}

// ToFloat16 converts a Float32 tensor to a new Float16 tensor.
// The conversion uses IEEE 754 round-to-nearest-even and is lossy.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) ToFloat16() *RawTensor {
	values := r.AsFloat32()

	out := &RawTensor{
		data:  make([]byte, len(values)*Float16.Size()),
		shape: r.shape.Clone(),
		dtype: Float16,
	}
	for i, v := range values {
		binary.LittleEndian.PutUint16(out.data[i*2:], float16.Fromfloat32(v).Bits())
	}
	return out
}

// ToFloat32 converts a Float16 tensor to a new Float32 tensor.
// Float32 tensors are deep-copied unchanged.
// Panics if the tensor's dtype is neither Float16 nor Float32.
func (r *RawTensor) ToFloat32() *RawTensor {
	if r.dtype == Float32 {
		return r.Clone()
	}
	if r.dtype != Float16 {
		panic(fmt.Sprintf("cannot convert %s tensor to float32", r.dtype))
	}

	n := r.NumElements()
	out := &RawTensor{
		data:  make([]byte, n*Float32.Size()),
		shape: r.shape.Clone(),
		dtype: Float32,
	}
	dst := out.AsFloat32()
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint16(r.data[i*2:])
		dst[i] = float16.Frombits(bits).Float32()
	}
	return out
}
