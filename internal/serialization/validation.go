package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 16 * 1024 * 1024 // 16MB - maximum JSON header size
	MaxTensorCount   = 10_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 1024             // Maximum tensor name length
)

// ValidationLevel controls the strictness of header validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal performs basic validation checks only.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// validateTensorOffsets checks for overlapping tensor regions and
// out-of-bounds access. Malformed files must not be able to alias one
// tensor's bytes into another or read past the data section.
func validateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	// Sort tensors by offset for efficient overlap detection.
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return fmt.Errorf("%w: tensor %q: offset=%d, size=%d",
				ErrNegativeOffset, t.Name, t.Offset, t.Size)
		}

		if t.Offset+t.Size > dataSize {
			return fmt.Errorf("%w: tensor %q: offset %d + size %d > data size %d",
				ErrOutOfBounds, t.Name, t.Offset, t.Size, dataSize)
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return fmt.Errorf("%w: tensors %q and %q: regions [%d-%d] and [%d-%d]",
					ErrOffsetOverlap, t.Name, next.Name,
					t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size)
			}
		}
	}

	return nil
}

// validateTensorName rejects names that could not have come from a
// parameter key: path separators, traversal sequences, null bytes.
func validateTensorName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTensorName)
	}
	if len(name) > MaxTensorNameLen {
		return fmt.Errorf("%w: %q: length %d > max %d",
			ErrInvalidTensorName, name, len(name), MaxTensorNameLen)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidTensorName, name)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q contains path separator or null byte", ErrInvalidTensorName, name)
	}
	return nil
}

// validateTensorMeta checks that a tensor's declared dtype, shape and
// size are mutually consistent.
func validateTensorMeta(t TensorMeta) error {
	dtype, ok := stringToDtype(t.DType)
	if !ok {
		return fmt.Errorf("tensor %q: unsupported dtype %q", t.Name, t.DType)
	}

	elems := int64(1)
	for i, dim := range t.Shape {
		if dim <= 0 {
			return fmt.Errorf("tensor %q: invalid dimension at index %d: %d", t.Name, i, dim)
		}
		elems *= int64(dim)
	}

	if want := elems * int64(dtype.Size()); t.Size != want {
		return fmt.Errorf("tensor %q: declared size %d does not match shape %v of %s (%d bytes)",
			t.Name, t.Size, t.Shape, t.DType, want)
	}

	return nil
}

// validateHeader performs header validation at the given level.
func validateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if h.Arch == nil {
		return ErrMissingArch
	}

	if len(h.Tensors) > MaxTensorCount {
		return fmt.Errorf("%w: got %d, max %d", ErrTooManyTensors, len(h.Tensors), MaxTensorCount)
	}

	seen := make(map[string]struct{}, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := validateTensorName(t.Name); err != nil {
			return err
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidTensorName, t.Name)
		}
		seen[t.Name] = struct{}{}

		if err := validateTensorMeta(t); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		if err := validateTensorOffsets(h.Tensors, dataSize); err != nil {
			return err
		}
	}

	return nil
}
