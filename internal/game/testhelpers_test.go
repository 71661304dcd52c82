package game

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// launcher is a fake resource API plus file server.
type launcher struct {
	srv   *httptest.Server
	files map[string][]byte
	res   Resource
}

func newLauncher(t *testing.T) *launcher {
	t.Helper()
	l := &launcher{files: make(map[string][]byte)}
	mux := http.NewServeMux()
	mux.HandleFunc("/resource", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(l.res)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		data, ok := l.files[r.URL.Path[len("/files/"):]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})
	l.srv = httptest.NewServer(mux)
	t.Cleanup(l.srv.Close)

	l.res = Resource{
		Retcode: 0,
		Message: "OK",
		Data: ResourceData{Game: GameData{
			Latest: Latest{
				Version:          "2.8.0",
				DecompressedPath: l.srv.URL + "/files/game",
				VoicePacks: []VoicePack{
					{Language: "en-us", Path: l.srv.URL + "/files/Audio_English(US)_2.8.0.zip", Size: "100", PackageSize: "50"},
					{Language: "ja-jp", Path: l.srv.URL + "/files/Audio_Japanese_2.8.0.zip", Size: "200", PackageSize: "80"},
				},
			},
			Diffs: []Diff{
				{Version: "2.7.0", Size: "5000", PackageSize: "3000"},
			},
		}},
	}
	return l
}

func (l *launcher) api() string { return l.srv.URL + "/resource" }

func (l *launcher) client() *Client { return NewClient(l.api()) }

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeConfigINI(t *testing.T, root, version string) {
	t.Helper()
	content := "[General]\nchannel=1\ncps=mihoyo\ngame_version=" + version + "\nsub_channel=0\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFile), []byte(content), 0o644))
}
