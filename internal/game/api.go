// Package game talks to the launcher resource API and inspects local
// installations: installed version, voice packages and their manifests.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bamsammich/agcli/internal/manifest"
)

// UserAgent is sent with every request.
const UserAgent = "agcli"

var (
	// ErrHTTPStatus is returned for non-2xx responses.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrAPI is returned when the resource API reports a non-zero retcode.
	ErrAPI = errors.New("launcher API error")
)

// Resource is the launcher resource API response.
type Resource struct {
	Message string       `json:"message"`
	Data    ResourceData `json:"data"`
	Retcode int          `json:"retcode"`
}

// ResourceData holds the game section of a Resource.
type ResourceData struct {
	Game GameData `json:"game"`
}

// GameData lists the latest release and the available update diffs.
type GameData struct {
	Latest Latest `json:"latest"`
	Diffs  []Diff `json:"diffs"`
}

// Latest describes the newest full release.
type Latest struct {
	Version          string      `json:"version"`
	Path             string      `json:"path"`
	Size             string      `json:"size"`
	MD5              string      `json:"md5"`
	DecompressedPath string      `json:"decompressed_path"`
	PackageSize      string      `json:"package_size"`
	VoicePacks       []VoicePack `json:"voice_packs"`
}

// Diff is an update archive from one older version to the latest.
type Diff struct {
	Version     string      `json:"version"`
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	Size        string      `json:"size"`
	MD5         string      `json:"md5"`
	PackageSize string      `json:"package_size"`
	VoicePacks  []VoicePack `json:"voice_packs"`
}

// VoicePack is a downloadable voice-over archive.
type VoicePack struct {
	Language    string `json:"language"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Size        string `json:"size"`
	MD5         string `json:"md5"`
	PackageSize string `json:"package_size"`
}

// UnpackedSize is the size on disk after unpacking.
func (v VoicePack) UnpackedSize() uint64 { return parseSize(v.Size) }

// DownloadSize is the archive size.
func (v VoicePack) DownloadSize() uint64 {
	if n := parseSize(v.PackageSize); n > 0 {
		return n
	}
	return parseSize(v.Size)
}

// UnpackedSize is the size on disk after applying the diff.
func (d Diff) UnpackedSize() uint64 { return parseSize(d.Size) }

// DownloadSize is the diff archive size.
func (d Diff) DownloadSize() uint64 {
	if n := parseSize(d.PackageSize); n > 0 {
		return n
	}
	return parseSize(d.Size)
}

// VoicePack returns the latest voice pack for locale.
func (l Latest) VoicePack(locale Locale) (VoicePack, bool) {
	for _, p := range l.VoicePacks {
		if strings.EqualFold(p.Language, locale.Code()) {
			return p, true
		}
	}
	return VoicePack{}, false
}

func parseSize(s string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Client fetches launcher metadata and downloads files. It implements the
// repair engine's Fetcher.
type Client struct {
	http *http.Client
	api  string
}

// NewClient creates a Client for the resource API at api.
func NewClient(api string) *Client {
	return &Client{
		api: api,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConnsPerHost:   16,
			},
		},
	}
}

// Resource fetches and decodes the launcher resource document.
func (c *Client) Resource(ctx context.Context) (Resource, error) {
	resp, err := c.get(ctx, c.api)
	if err != nil {
		return Resource{}, err
	}
	defer resp.Body.Close()

	var res Resource
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Resource{}, fmt.Errorf("decode resource: %w", err)
	}
	if res.Retcode != 0 {
		return Resource{}, fmt.Errorf("%w: retcode %d: %s", ErrAPI, res.Retcode, res.Message)
	}
	return res, nil
}

// Manifest fetches a pkg_version document at url. Entries are resolved
// against base.
func (c *Client) Manifest(ctx context.Context, url, base string) ([]manifest.IntegrityFile, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	files, err := manifest.ParsePkgVersion(resp.Body, base)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return files, nil
}

// Download streams url into w and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w: %d", url, ErrHTTPStatus, resp.StatusCode)
	}
	return resp, nil
}
