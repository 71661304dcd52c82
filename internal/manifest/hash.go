package manifest

import (
	"crypto/md5"  //nolint:gosec // G501: integrity check only
	"crypto/sha1" //nolint:gosec // G505: integrity check only
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// NewHasher returns a fresh hash.Hash for algo.
//
//nolint:ireturn // factory over hash implementations
func NewHasher(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case MD5:
		return md5.New(), nil //nolint:gosec // G401: integrity check only
	case SHA1:
		return sha1.New(), nil //nolint:gosec // G401: integrity check only
	case SHA256:
		return sha256.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	case XXH64:
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %s", algo)
	}
}

// HashReader digests r with algo.
func HashReader(r io.Reader, algo Algorithm) (Checksum, error) {
	h, err := NewHasher(algo)
	if err != nil {
		return Checksum{}, err
	}
	buf := make([]byte, 256*1024)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return Checksum{}, err
	}
	return Checksum{Algo: algo, Sum: h.Sum(nil)}, nil
}

// HashFile digests the file at path with algo.
func HashFile(path string, algo Algorithm) (Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return Checksum{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sum, err := HashReader(f, algo)
	if err != nil {
		return Checksum{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return sum, nil
}
