package nn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ffnet-ml/ffnet/internal/tensor"
)

// ShapeMismatch records a parameter whose restored shape disagrees with
// the shape implied by the architecture descriptor.
type ShapeMismatch struct {
	Key  string       // Parameter key (e.g., "hidden_layers.0.weight")
	Want tensor.Shape // Shape the descriptor implies
	Got  tensor.Shape // Shape found in the state dict
}

// DTypeMismatch records a parameter whose restored dtype disagrees with
// the model's parameter dtype.
type DTypeMismatch struct {
	Key  string
	Want tensor.DataType
	Got  tensor.DataType
}

// MismatchError reports every disagreement between a state dict and the
// parameter set implied by an architecture descriptor: missing keys,
// unexpected extra keys, and per-key shape or dtype mismatches.
//
// The error is only returned after the full state dict has been checked,
// so all offending keys are enumerated in one report and the model's
// parameters are left untouched.
type MismatchError struct {
	Arch       Arch            // Descriptor the model was built from
	Missing    []string        // Keys the descriptor implies but the state dict lacks
	Unexpected []string        // Keys in the state dict the descriptor does not imply
	Shapes     []ShapeMismatch // Shared keys whose shapes disagree
	DTypes     []DTypeMismatch // Shared keys whose dtypes disagree
}

// sorted returns the receiver with all key lists in deterministic order.
func (e *MismatchError) sorted() *MismatchError {
	sort.Strings(e.Missing)
	sort.Strings(e.Unexpected)
	sort.Slice(e.Shapes, func(i, j int) bool { return e.Shapes[i].Key < e.Shapes[j].Key })
	sort.Slice(e.DTypes, func(i, j int) bool { return e.DTypes[i].Key < e.DTypes[j].Key })
	return e
}

// hasMismatches reports whether any disagreement was recorded.
func (e *MismatchError) hasMismatches() bool {
	return len(e.Missing) > 0 || len(e.Unexpected) > 0 || len(e.Shapes) > 0 || len(e.DTypes) > 0
}

// Keys returns the sorted set of all offending parameter keys.
func (e *MismatchError) Keys() []string {
	seen := make(map[string]struct{})
	for _, k := range e.Missing {
		seen[k] = struct{}{}
	}
	for _, k := range e.Unexpected {
		seen[k] = struct{}{}
	}
	for _, m := range e.Shapes {
		seen[m.Key] = struct{}{}
	}
	for _, m := range e.DTypes {
		seen[m.Key] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Error implements the error interface. Every offending key appears in
// the message, with expected versus found shapes for shape mismatches.
func (e *MismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "state dict does not match architecture %s:", e.Arch)

	for _, k := range e.Missing {
		fmt.Fprintf(&b, "\n  missing key %q", k)
	}
	for _, k := range e.Unexpected {
		fmt.Fprintf(&b, "\n  unexpected key %q", k)
	}
	for _, m := range e.Shapes {
		fmt.Fprintf(&b, "\n  shape mismatch for %q: expected %v, found %v", m.Key, m.Want, m.Got)
	}
	for _, m := range e.DTypes {
		fmt.Fprintf(&b, "\n  dtype mismatch for %q: expected %s, found %s", m.Key, m.Want, m.Got)
	}

	return b.String()
}
