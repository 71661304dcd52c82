// Package manifest defines the canonical file list of an installation and
// the checksum algorithms it can carry.
package manifest

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Algorithm identifies the hash function a Checksum was computed with.
type Algorithm int

const (
	MD5 Algorithm = iota + 1
	SHA1
	SHA256
	BLAKE3
	XXH64
)

var algorithmNames = [...]string{
	MD5:    "md5",
	SHA1:   "sha1",
	SHA256: "sha256",
	BLAKE3: "blake3",
	XXH64:  "xxh64",
}

func (a Algorithm) String() string {
	if a > 0 && int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return "unknown"
}

// ParseAlgorithm resolves a case-insensitive algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range algorithmNames {
		if i > 0 && n == name {
			return Algorithm(i), nil
		}
	}
	return 0, fmt.Errorf("unsupported checksum algorithm %q", name)
}

// Checksum is an opaque digest tagged with its algorithm.
type Checksum struct {
	Sum  []byte
	Algo Algorithm
}

// ParseChecksum decodes a hex digest for the given algorithm.
func ParseChecksum(algo Algorithm, hexSum string) (Checksum, error) {
	sum, err := hex.DecodeString(strings.TrimSpace(hexSum))
	if err != nil {
		return Checksum{}, fmt.Errorf("decode %s checksum: %w", algo, err)
	}
	return Checksum{Algo: algo, Sum: sum}, nil
}

// Equal compares two checksums in constant time. Checksums of different
// algorithms never match.
func (c Checksum) Equal(other Checksum) bool {
	if c.Algo != other.Algo || len(c.Sum) != len(other.Sum) {
		return false
	}
	return subtle.ConstantTimeCompare(c.Sum, other.Sum) == 1
}

func (c Checksum) String() string {
	return c.Algo.String() + ":" + hex.EncodeToString(c.Sum)
}

// IntegrityFile is a single expected file of an installation.
type IntegrityFile struct {
	Path      string // relative, forward-slash separated
	RemoteURL string
	Checksum  Checksum
	Size      uint64
}

var (
	ErrEmptyPath    = errors.New("empty path")
	ErrAbsolutePath = errors.New("path is absolute")
	ErrPathEscapes  = errors.New("path escapes the installation root")
)

// Validate checks the path invariants of f.
func (f IntegrityFile) Validate() error {
	if f.Path == "" || f.Path == "." {
		return ErrEmptyPath
	}
	if strings.HasPrefix(f.Path, "/") || strings.HasPrefix(f.Path, `\`) {
		return fmt.Errorf("%s: %w", f.Path, ErrAbsolutePath)
	}
	for _, elem := range strings.Split(f.Path, "/") {
		if elem == ".." {
			return fmt.Errorf("%s: %w", f.Path, ErrPathEscapes)
		}
	}
	return nil
}

// NormalizePath converts backslashes to forward slashes and cleans the
// result, so manifests produced on Windows compare equal.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// TotalSize sums the expected sizes of files.
func TotalSize(files []IntegrityFile) uint64 {
	var total uint64
	for _, f := range files {
		total += f.Size
	}
	return total
}
