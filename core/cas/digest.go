package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// Digest carries the two content hashes recorded for an archived input.
type Digest struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// pointer is the structure stored in BLAKE3 pointer files.
type pointer struct {
	SHA256 string `json:"sha256"`
}

// HashBytes computes both digests of data without storing it.
func HashBytes(data []byte) Digest {
	sha := sha256.Sum256(data)
	b3 := blake3.Sum256(data)
	return Digest{
		SHA256: hex.EncodeToString(sha[:]),
		BLAKE3: hex.EncodeToString(b3[:]),
	}
}

// HashFile computes both digests of the file at path in one streaming
// pass and reports its size.
func HashFile(path string) (Digest, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, 0, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	sha := sha256.New()
	b3 := blake3.New()
	n, err := io.Copy(io.MultiWriter(sha, b3), f)
	if err != nil {
		return Digest{}, 0, fmt.Errorf("failed to hash input: %w", err)
	}

	return Digest{
		SHA256: hex.EncodeToString(sha.Sum(nil)),
		BLAKE3: hex.EncodeToString(b3.Sum(nil)),
	}, n, nil
}

// writePointer creates the pointer file mapping a BLAKE3 hash to its
// SHA-256 hash. Pointer files live at:
// <root>/blobs/blake3/<first2>/<blake3>.json
func (s *Store) writePointer(d Digest) error {
	pointerPath := s.pointerPath(d.BLAKE3)

	if _, err := os.Stat(pointerPath); err == nil {
		return nil // already exists
	}

	data, err := json.Marshal(pointer{SHA256: d.SHA256})
	if err != nil {
		return fmt.Errorf("failed to marshal pointer: %w", err)
	}

	if err := writeAtomic(pointerPath, data); err != nil {
		return fmt.Errorf("failed to write pointer: %w", err)
	}

	return nil
}

// ResolveBlake3 looks up a SHA-256 hash by its corresponding BLAKE3 hash.
// Returns ErrBlobNotFound if no pointer file exists for the BLAKE3 hash.
func (s *Store) ResolveBlake3(blake3Hash string) (string, error) {
	if !isValidHash(blake3Hash) {
		return "", ErrInvalidHash
	}

	data, err := os.ReadFile(s.pointerPath(blake3Hash))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrBlobNotFound
		}
		return "", fmt.Errorf("failed to read pointer: %w", err)
	}

	var p pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("failed to parse pointer: %w", err)
	}

	return p.SHA256, nil
}

// GetByBlake3 retrieves a blob by its BLAKE3 hash.
// It first resolves the SHA-256 hash, then retrieves the blob.
func (s *Store) GetByBlake3(blake3Hash string) ([]byte, error) {
	sha256Hash, err := s.ResolveBlake3(blake3Hash)
	if err != nil {
		return nil, err
	}
	return s.Get(sha256Hash)
}

// pointerPath returns the pointer file path for a BLAKE3 hash.
func (s *Store) pointerPath(blake3Hash string) string {
	return filepath.Join(s.root, "blobs", "blake3", blake3Hash[:2], blake3Hash+".json")
}
