package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ffnet-ml/ffnet/internal/tensor"
)

const ffnetVersion = "0.2.0" // Current FFNet version

// WriteFile writes an architecture descriptor and state dictionary to a
// .ffnet file as one atomic operation.
//
// The artifact is first written to a temporary file in the destination
// directory, synced, and then renamed over the destination, so a failed
// or interrupted save never leaves a torn artifact behind and never
// clobbers an existing one.
func WriteFile(path string, arch ArchMeta, stateDict map[string]*tensor.RawTensor, metadata map[string]string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ffnet-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = writeArtifact(tmp, arch, stateDict, metadata); err != nil {
		return err
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename into place: %w", err)
	}

	return nil
}

// writeArtifact writes the full .ffnet byte stream to an open file.
func writeArtifact(f *os.File, arch ArchMeta, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	// Deterministic tensor order: sorted by name.
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion: FormatVersion,
		FFNetVersion:  ffnetVersion,
		CreatedAt:     time.Now().UTC(),
		Arch:          &arch,
		Tensors:       make([]TensorMeta, 0, len(stateDict)),
		Metadata:      metadata,
	}

	// Calculate tensor offsets and collect the data section.
	var currentOffset int64
	var tensorData []byte
	half := false

	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.ByteSize())

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: currentOffset,
			Size:   size,
		})

		currentOffset += size
		tensorData = append(tensorData, raw.Data()...)
		if raw.DType() == tensor.Float16 {
			half = true
		}
	}

	header.Checksum = ComputeChecksum(tensorData)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	// Write prelude: magic, version, flags, header size.
	if _, err := f.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}

	flags := uint32(0)
	if len(metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if half {
		flags |= FlagHalfPrecision
	}
	if err := binary.Write(f, binary.LittleEndian, flags); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}

	headerSize := uint64(len(headerJSON))
	if err := binary.Write(f, binary.LittleEndian, headerSize); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}

	if _, err := f.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Pad so tensor data starts on a HeaderAlignment boundary.
	currentPos := int64(preludeSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := f.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := f.Write(tensorData); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}
