package engine

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/agcli/internal/manifest"
)

// remote serves fixed blobs by path and counts requests per path.
type remote struct {
	srv   *httptest.Server
	mu    sync.Mutex
	blobs map[string][]byte
	hits  map[string]*atomic.Int64
}

func newRemote(t *testing.T) *remote {
	t.Helper()
	r := &remote{blobs: make(map[string][]byte), hits: make(map[string]*atomic.Int64)}
	r.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		data, ok := r.blobs[req.URL.Path]
		h := r.hits[req.URL.Path]
		r.mu.Unlock()
		if h != nil {
			h.Add(1)
		}
		if !ok {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(r.srv.Close)
	return r
}

// serve registers data under name and returns its URL.
func (r *remote) serve(name string, data []byte) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs["/"+name] = data
	r.hits["/"+name] = &atomic.Int64{}
	return r.url(name)
}

func (r *remote) url(name string) string { return r.srv.URL + "/" + name }

func (r *remote) requests(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h := r.hits["/"+name]; h != nil {
		return h.Load()
	}
	return 0
}

// httpFetcher is a minimal Fetcher over net/http.
type httpFetcher struct{}

func (httpFetcher) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.Copy(w, resp.Body)
}

func md5Entry(t *testing.T, path string, data []byte, url string) manifest.IntegrityFile {
	t.Helper()
	sum := md5.Sum(data)
	return manifest.IntegrityFile{
		Path:      path,
		RemoteURL: url,
		Size:      uint64(len(data)),
		Checksum:  manifest.Checksum{Algo: manifest.MD5, Sum: sum[:]},
	}
}

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
}

func readFile(t *testing.T, root, rel string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return data
}

func sized(sizes ...uint64) []manifest.IntegrityFile {
	files := make([]manifest.IntegrityFile, len(sizes))
	for i, s := range sizes {
		files[i] = manifest.IntegrityFile{Path: fmt.Sprintf("f%02d", i), Size: s}
	}
	return files
}

func paths(files []manifest.IntegrityFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

// recorder is a Reporter that keeps every message.
type recorder struct {
	mu      sync.Mutex
	notices []string
	warns   []string
	errors  []string
}

func (r *recorder) Notice(m string) { r.mu.Lock(); r.notices = append(r.notices, m); r.mu.Unlock() }
func (r *recorder) Warn(m string)   { r.mu.Lock(); r.warns = append(r.warns, m); r.mu.Unlock() }
func (r *recorder) Error(m string)  { r.mu.Lock(); r.errors = append(r.errors, m); r.mu.Unlock() }
