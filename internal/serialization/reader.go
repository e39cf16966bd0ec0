package serialization

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ffnet-ml/ffnet/internal/tensor"
)

// Reader reads checkpoint artifacts in .ffnet format.
type Reader struct {
	file       *os.File
	path       string
	header     Header
	flags      uint32
	version    uint32
	dataOffset int64 // Offset where tensor data starts
	dataSize   int64 // Size of the data section
	opts       ReaderOptions
	closed     bool
}

// ReaderOptions configures the behavior of Reader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// NewReader opens a .ffnet file with default options (strict validation).
//
// A file that cannot be opened surfaces the wrapped OS error; a file
// that opens but cannot be parsed surfaces a *FormatError.
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOptions(path, ReaderOptions{
		ValidationLevel: ValidationStrict,
	})
}

// NewReaderWithOptions opens a .ffnet file with custom options.
func NewReaderWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}

	reader := &Reader{
		file: file,
		path: path,
		opts: opts,
	}

	if err := reader.parseHeader(); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, err
	}

	fileInfo, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}
	reader.dataSize = fileInfo.Size() - reader.dataOffset
	if reader.dataSize < 0 {
		_ = file.Close()
		return nil, formatErrorf(path, ErrTruncated, "data section")
	}

	if err := validateHeader(&reader.header, reader.dataSize, opts.ValidationLevel); err != nil {
		_ = file.Close()
		return nil, formatErrorf(path, err, "header validation")
	}

	if !opts.SkipChecksumValidation {
		if err := reader.validateChecksum(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return reader, nil
}

// parseHeader reads and parses the .ffnet prelude and JSON header.
func (r *Reader) parseHeader() error {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r.file, magic); err != nil {
		return formatErrorf(r.path, readErr(err), "magic bytes")
	}
	if string(magic) != MagicBytes {
		return formatErrorf(r.path, ErrInvalidMagic, "got %q, expected %q", string(magic), MagicBytes)
	}

	if err := binary.Read(r.file, binary.LittleEndian, &r.version); err != nil {
		return formatErrorf(r.path, readErr(err), "format version")
	}
	if r.version != FormatVersion {
		return formatErrorf(r.path, ErrUnsupportedVersion, "got %d, expected %d", r.version, FormatVersion)
	}

	if err := binary.Read(r.file, binary.LittleEndian, &r.flags); err != nil {
		return formatErrorf(r.path, readErr(err), "flags")
	}

	var headerSize uint64
	if err := binary.Read(r.file, binary.LittleEndian, &headerSize); err != nil {
		return formatErrorf(r.path, readErr(err), "header size")
	}
	if headerSize > MaxHeaderSize {
		return formatErrorf(r.path, ErrHeaderTooLarge, "%d bytes, max %d", headerSize, MaxHeaderSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerBytes); err != nil {
		return formatErrorf(r.path, readErr(err), "header JSON")
	}

	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return formatErrorf(r.path, err, "header JSON")
	}

	// Data offset accounts for alignment padding after the header.
	currentPos := int64(preludeSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	r.dataOffset = currentPos + padding

	return nil
}

// validateChecksum reads the tensor data section and verifies it against
// the checksum recorded in the header.
func (r *Reader) validateChecksum() error {
	data := make([]byte, r.dataSize)
	if _, err := r.file.Seek(r.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to tensor data: %w", err)
	}
	if _, err := io.ReadFull(r.file, data); err != nil {
		return formatErrorf(r.path, readErr(err), "tensor data")
	}

	if err := ValidateChecksum(ComputeChecksum(data), r.header.Checksum); err != nil {
		return formatErrorf(r.path, err, "tensor data")
	}
	return nil
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Arch returns the architecture descriptor recorded in the header.
func (r *Reader) Arch() ArchMeta {
	return *r.header.Arch
}

// Flags returns the format flags from the prelude.
func (r *Reader) Flags() uint32 {
	return r.flags
}

// TensorNames returns a list of all tensor names in the file.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// loadTensor materializes one tensor from the data section.
func (r *Reader) loadTensor(meta TensorMeta) (*tensor.RawTensor, error) {
	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, formatErrorf(r.path, nil, "tensor %q: unsupported dtype %q", meta.Name, meta.DType)
	}

	raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype)
	if err != nil {
		return nil, formatErrorf(r.path, err, "tensor %q", meta.Name)
	}

	if _, err := r.file.Seek(r.dataOffset+meta.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to tensor %s: %w", meta.Name, err)
	}
	if _, err := io.ReadFull(r.file, raw.Data()); err != nil {
		return nil, formatErrorf(r.path, readErr(err), "tensor %q data", meta.Name)
	}

	return raw, nil
}

// ReadStateDict reads all tensors into a state dictionary.
func (r *Reader) ReadStateDict() (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	stateDict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.loadTensor(meta)
		if err != nil {
			return nil, err
		}
		stateDict[meta.Name] = raw
	}

	return stateDict, nil
}

// Close closes the reader and the underlying file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// readErr maps short reads to ErrTruncated so callers can distinguish a
// cut-off artifact from other causes.
func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
