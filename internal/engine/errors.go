package engine

import (
	"errors"
	"fmt"

	"github.com/bamsammich/agcli/internal/manifest"
)

// ErrorKind classifies engine failures.
type ErrorKind int

const (
	ConfigMissing ErrorKind = iota + 1
	ManifestFetch
	Io
	Network
	SizeMismatch
	ChecksumMismatch
)

var kindNames = [...]string{
	ConfigMissing:    "ConfigMissing",
	ManifestFetch:    "ManifestFetch",
	Io:               "Io",
	Network:          "Network",
	SizeMismatch:     "SizeMismatch",
	ChecksumMismatch: "ChecksumMismatch",
}

func (k ErrorKind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

var (
	// ErrConfigMissing is returned when the installation root is unset.
	ErrConfigMissing = errors.New("installation root is not set")
	// ErrManifestFetch wraps manifest source failures.
	ErrManifestFetch = errors.New("failed to fetch integrity files")
	// ErrInvalidConfig wraps repair configuration errors.
	ErrInvalidConfig = errors.New("invalid repair configuration")
)

// Failure is a file the repair phase could not restore.
type Failure struct {
	Err  error
	File manifest.IntegrityFile
	Kind ErrorKind
}

func (f Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.File.Path, f.Kind, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.File.Path, f.Kind)
}

func (f Failure) Unwrap() error { return f.Err }
