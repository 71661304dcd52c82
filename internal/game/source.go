package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/bamsammich/agcli/internal/manifest"
)

// GameManifestName is the pkg_version file of the game itself.
const GameManifestName = "pkg_version"

// ErrNoDecompressedPath is returned when the API omits the file root.
var ErrNoDecompressedPath = errors.New("resource has no decompressed_path")

// GameSource fetches the game manifest of the latest release.
type GameSource struct {
	Client *Client
}

// FetchManifest implements the engine's manifest source.
func (s GameSource) FetchManifest(ctx context.Context) ([]manifest.IntegrityFile, error) {
	base, err := decompressedPath(ctx, s.Client)
	if err != nil {
		return nil, err
	}
	return s.Client.Manifest(ctx, base+"/"+GameManifestName, base)
}

// VoiceSource fetches and concatenates the manifests of several locales.
type VoiceSource struct {
	Client  *Client
	Locales []Locale
}

// FetchManifest implements the engine's manifest source.
func (s VoiceSource) FetchManifest(ctx context.Context) ([]manifest.IntegrityFile, error) {
	base, err := decompressedPath(ctx, s.Client)
	if err != nil {
		return nil, err
	}
	var files []manifest.IntegrityFile
	for _, l := range s.Locales {
		part, err := s.Client.Manifest(ctx, base+"/"+VoiceManifestName(l), base)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.Name(), err)
		}
		files = append(files, part...)
	}
	return files, nil
}

// FileSource reads a local pkg_version file. Files ending in .zst are
// zstd-compressed.
type FileSource struct {
	Path    string
	BaseURL string
}

// FetchManifest implements the engine's manifest source.
func (s FileSource) FetchManifest(context.Context) ([]manifest.IntegrityFile, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(s.Path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	files, err := manifest.ParsePkgVersion(r, s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return files, nil
}

func decompressedPath(ctx context.Context, c *Client) (string, error) {
	res, err := c.Resource(ctx)
	if err != nil {
		return "", err
	}
	base := strings.TrimRight(res.Data.Game.Latest.DecompressedPath, "/")
	if base == "" {
		return "", ErrNoDecompressedPath
	}
	return base, nil
}
