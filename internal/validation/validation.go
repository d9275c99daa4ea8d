// Package validation screens user-supplied inputs before they reach the
// pipeline: path sanity, size limits, and magic-byte checks that catch a
// file whose content contradicts its extension.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/RefTax/internal/logging"
)

const (
	// MaxFileSize is the maximum allowed input file size (256 MB).
	MaxFileSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileTooLarge     = errors.New("file exceeds size limit")
)

// ValidatePath rejects empty or overlong paths and paths carrying control
// characters before they reach the filesystem.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return ErrEmptyPath
	case len(path) > MaxPathLength:
		return ErrPathTooLong
	case strings.Contains(path, "\x00"):
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	case strings.ContainsFunc(path, unicode.IsControl):
		return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
	}
	return nil
}

// CheckFileSize verifies that the file at path does not exceed MaxFileSize.
func CheckFileSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}
	return nil
}

// FileType represents a validated file type.
type FileType string

const (
	FileTypeGzip FileType = "gzip"
	FileTypeXZ   FileType = "xz"

	FileTypeSQLite FileType = "sqlite"

	FileTypeTSV    FileType = "tsv"
	FileTypeFASTA  FileType = "fasta"
	FileTypeNewick FileType = "newick"
	FileTypeXML    FileType = "xml"
	FileTypeJSON   FileType = "json"
	FileTypeText   FileType = "text"

	FileTypeUnknown FileType = "unknown"
)

// signatures are the leading magic bytes of the binary formats RefTax
// accepts. Text formats have no signature and detect as unknown.
var signatures = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeSQLite, []byte("SQLite format 3")},
}

// DetectFileType matches the leading bytes of buf against known binary
// signatures.
func DetectFileType(buf []byte) FileType {
	for _, sig := range signatures {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

// ValidateFileType cross-checks a file's content against the type implied
// by its filename extension. It reads up to 512 header bytes from reader
// and returns the agreed type, or an error when content and extension
// contradict each other.
func ValidateFileType(reader io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	detected := DetectFileType(buf)
	expected := detectFileTypeFromExtension(filename)

	if detected == expected {
		// Compressed containers only reveal themselves here; the payload
		// is checked again after decompression.
		return detected, nil
	}

	if detected == FileTypeUnknown {
		// No signature matched. Text formats never have one, so log a
		// note when the content does not even look like text, but let
		// the extension's claim stand either way.
		if isTextType(expected) && !isLikelyText(buf) && len(buf) > 0 {
			logging.Debug("input does not look like text",
				"filename", filename, "claimed_type", string(expected))
		}
		return expected, nil
	}

	if expected != FileTypeUnknown {
		return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is %s", expected, detected)
	}
	return detected, nil
}

// isTextType reports whether t is one of the text-based reference formats.
func isTextType(t FileType) bool {
	switch t {
	case FileTypeTSV, FileTypeFASTA, FileTypeNewick, FileTypeXML, FileTypeJSON, FileTypeText:
		return true
	}
	return false
}

// extensionTypes maps filename extensions to the type they claim.
var extensionTypes = map[string]FileType{
	".xz":       FileTypeXZ,
	".gz":       FileTypeGzip,
	".sqlite":   FileTypeSQLite,
	".sqlite3":  FileTypeSQLite,
	".db":       FileTypeSQLite,
	".tsv":      FileTypeTSV,
	".tax":      FileTypeTSV,
	".fasta":    FileTypeFASTA,
	".fa":       FileTypeFASTA,
	".fna":      FileTypeFASTA,
	".afa":      FileTypeFASTA,
	".aln":      FileTypeFASTA,
	".nwk":      FileTypeNewick,
	".newick":   FileTypeNewick,
	".tree":     FileTypeNewick,
	".tre":      FileTypeNewick,
	".xml":      FileTypeXML,
	".phyloxml": FileTypeXML,
	".json":     FileTypeJSON,
	".txt":      FileTypeText,
	".md":       FileTypeText,
}

func detectFileTypeFromExtension(filename string) FileType {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return FileTypeUnknown
}

// isLikelyText reports whether buf reads as text: no null bytes, and at
// least 95% printable among the single-byte characters. UTF-8 multibyte
// sequences count as neutral.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 || bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable, control := 0, 0
	for _, b := range buf {
		switch {
		case b == '\t' || b == '\n' || b == '\r':
			printable++
		case b >= 0x20 && b <= 0x7e:
			printable++
		case b < 0x20:
			control++
		}
	}

	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
