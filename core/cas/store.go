// Package cas provides content-addressed storage for reference inputs.
// Snapshot runs can archive the classification tables they were built
// from; blobs are stored by SHA-256 hash, deduplicated, and additionally
// indexed by BLAKE3 so either digest can be used to retrieve the
// original bytes.
package cas

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	// ErrBlobNotFound is returned when no blob with the given hash exists.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrInvalidHash is returned when a hash string is not 64 lowercase
	// hex characters.
	ErrInvalidHash = errors.New("invalid hash format")
)

var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

func isValidHash(hash string) bool {
	return hashPattern.MatchString(hash)
}

// Store provides content-addressed storage rooted at a directory.
// Blobs live at <root>/blobs/sha256/<first2>/<hash>; BLAKE3 pointers at
// <root>/blobs/blake3/<first2>/<hash>.json.
type Store struct {
	root string
}

// NewStore opens a content-addressed store at root, creating the
// directory layout when it does not exist yet.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "blobs", "sha256"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Put archives data and returns its digests. Content already present is
// not rewritten, but its BLAKE3 pointer is refreshed so an interrupted
// earlier Put heals.
func (s *Store) Put(data []byte) (Digest, error) {
	d := HashBytes(data)

	blobPath := s.pathForHash(d.SHA256)
	if _, err := os.Stat(blobPath); err != nil {
		if err := writeAtomic(blobPath, data); err != nil {
			return Digest{}, fmt.Errorf("failed to write blob: %w", err)
		}
	}
	if err := s.writePointer(d); err != nil {
		return Digest{}, err
	}
	return d, nil
}

// PutFile archives the file at path and returns its digests and size.
func (s *Store) PutFile(path string) (Digest, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, 0, fmt.Errorf("failed to read input: %w", err)
	}

	d, err := s.Put(data)
	if err != nil {
		return Digest{}, 0, err
	}
	return d, int64(len(data)), nil
}

// Get retrieves the blob with the given SHA-256 hash. A malformed hash
// yields ErrInvalidHash, an absent blob ErrBlobNotFound.
func (s *Store) Get(sha256Hash string) ([]byte, error) {
	if !isValidHash(sha256Hash) {
		return nil, ErrInvalidHash
	}

	data, err := os.ReadFile(s.pathForHash(sha256Hash))
	switch {
	case err == nil:
		return data, nil
	case os.IsNotExist(err):
		return nil, ErrBlobNotFound
	default:
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
}

// Exists reports whether a blob with the given SHA-256 hash is archived.
func (s *Store) Exists(sha256Hash string) bool {
	if !isValidHash(sha256Hash) {
		return false
	}
	_, err := os.Stat(s.pathForHash(sha256Hash))
	return err == nil
}

func (s *Store) pathForHash(hash string) string {
	return filepath.Join(s.root, "blobs", "sha256", hash[:2], hash)
}

// writeAtomic lands data at path through a temp file and rename so a
// crashed write never leaves a truncated blob under its final name.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blob-*")
	if err != nil {
		return err
	}

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		if werr != nil {
			return werr
		}
		return cerr
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
