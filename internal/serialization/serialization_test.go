package serialization

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ffnet-ml/ffnet/internal/tensor"
)

func testStateDict(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()

	weight, err := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	bias, err := tensor.FromFloat32([]float32{0.5, -0.5}, tensor.Shape{2})
	require.NoError(t, err)

	return map[string]*tensor.RawTensor{
		"output.weight": weight,
		"output.bias":   bias,
	}
}

func testArch() ArchMeta {
	return ArchMeta{InputSize: 3, OutputSize: 2}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ffnet")
	stateDict := testStateDict(t)

	require.NoError(t, WriteFile(path, testArch(), stateDict, map[string]string{"note": "unit test"}))

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	header := reader.Header()
	assert.Equal(t, FormatVersion, header.FormatVersion)
	assert.NotEmpty(t, header.FFNetVersion)
	assert.False(t, header.CreatedAt.IsZero())
	assert.Equal(t, "unit test", header.Metadata["note"])

	arch := reader.Arch()
	assert.Equal(t, 3, arch.InputSize)
	assert.Equal(t, 2, arch.OutputSize)

	restored, err := reader.ReadStateDict()
	require.NoError(t, err)
	require.Len(t, restored, 2)

	for key, raw := range stateDict {
		got, ok := restored[key]
		require.Truef(t, ok, "missing tensor %q", key)
		assert.True(t, got.Shape().Equal(raw.Shape()))
		assert.Equal(t, raw.AsFloat32(), got.AsFloat32())
	}
}

func TestTensorOrderIsSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ffnet")
	require.NoError(t, WriteFile(path, testArch(), testStateDict(t), nil))

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, []string{"output.bias", "output.weight"}, reader.TensorNames())
}

func TestHeaderOmitsEmptyMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ffnet")
	require.NoError(t, WriteFile(path, testArch(), testStateDict(t), nil))

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Empty(t, reader.Header().Metadata)
	assert.Zero(t, reader.Flags()&FlagHasMetadata)
}

func TestReaderRejectsWrongMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ffnet")
	require.NoError(t, os.WriteFile(path, []byte("GGUF\x01\x00\x00\x00"), 0o600))

	_, err := NewReader(path)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.True(t, errors.Is(err, ErrInvalidMagic))
}

func TestReaderRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.ffnet")
	// Magic plus version 99.
	require.NoError(t, os.WriteFile(path, []byte{'F', 'F', 'N', 'T', 99, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 0o600))

	_, err := NewReader(path)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestReaderRejectsTruncatedPrelude(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.ffnet")
	require.NoError(t, os.WriteFile(path, []byte("FF"), 0o600))

	_, err := NewReader(path)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestReaderRejectsGarbageHeaderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ffnet")
	require.NoError(t, WriteFile(path, testArch(), testStateDict(t), nil))

	// Corrupt the first byte of the JSON header.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[preludeSize] = 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = NewReader(path)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestReaderDetectsCorruptedTensorData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ffnet")
	require.NoError(t, WriteFile(path, testArch(), testStateDict(t), nil))

	// Flip a bit in the last byte, inside the tensor data section.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = NewReader(path)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.True(t, errors.Is(err, ErrChecksumMismatch))

	// Skipping checksum validation lets the corrupted file open.
	reader, err := NewReaderWithOptions(path, ReaderOptions{
		SkipChecksumValidation: true,
		ValidationLevel:        ValidationStrict,
	})
	require.NoError(t, err)
	reader.Close()
}

func TestReaderRejectsMissingArch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ffnet")
	require.NoError(t, WriteFile(path, testArch(), testStateDict(t), nil))

	// Rewrite the artifact with the arch field nulled out. Easiest is a
	// fresh artifact written through the low-level path.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	corrupted := []byte(string(data)) // Copy
	// Replace "arch" key so the decoded header has a nil Arch.
	for i := 0; i+6 < len(corrupted); i++ {
		if string(corrupted[i:i+6]) == `"arch"` {
			copy(corrupted[i:i+6], `"arhc"`)
			break
		}
	}
	require.NoError(t, os.WriteFile(path, corrupted, 0o600))

	_, err = NewReader(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingArch))
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "absent.ffnet"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	var formatErr *FormatError
	assert.False(t, errors.As(err, &formatErr))
}

func TestWriteFileAtomicOnMissingDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "model.ffnet")

	err := WriteFile(path, testArch(), testStateDict(t), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Nothing was created anywhere.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFileFloat16Tensors(t *testing.T) {
	weight, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	bias, err := tensor.FromFloat32([]float32{0.5, 0.25}, tensor.Shape{2})
	require.NoError(t, err)
	stateDict := map[string]*tensor.RawTensor{
		"output.weight": weight.ToFloat16(),
		"output.bias":   bias.ToFloat16(),
	}

	path := filepath.Join(t.TempDir(), "half.ffnet")
	require.NoError(t, WriteFile(path, ArchMeta{InputSize: 2, OutputSize: 2}, stateDict, nil))

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.NotZero(t, reader.Flags()&FlagHalfPrecision)

	restored, err := reader.ReadStateDict()
	require.NoError(t, err)
	for key, raw := range restored {
		assert.Equalf(t, tensor.Float16, raw.DType(), "key %q", key)
	}
	assert.Equal(t, []float32{1, 2, 3, 4}, restored["output.weight"].ToFloat32().AsFloat32())
}

func TestChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("ffnet"))
	assert.Len(t, sum, 64) // hex-encoded SHA-256

	assert.NoError(t, ValidateChecksum(sum, sum))
	assert.ErrorIs(t, ValidateChecksum(sum, ComputeChecksum([]byte("tenff"))), ErrChecksumMismatch)
}
