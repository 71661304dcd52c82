package game

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/agcli/internal/manifest"
)

func TestClient_Resource(t *testing.T) {
	l := newLauncher(t)

	res, err := l.client().Resource(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.8.0", res.Data.Game.Latest.Version)
	require.Len(t, res.Data.Game.Latest.VoicePacks, 2)

	pack, ok := res.Data.Game.Latest.VoicePack(Japanese)
	require.True(t, ok)
	assert.Equal(t, uint64(200), pack.UnpackedSize())
	assert.Equal(t, uint64(80), pack.DownloadSize())

	_, ok = res.Data.Game.Latest.VoicePack(Korean)
	assert.False(t, ok)
}

func TestClient_ResourceRetcode(t *testing.T) {
	l := newLauncher(t)
	l.res.Retcode = -1
	l.res.Message = "invalid key"

	_, err := l.client().Resource(context.Background())
	require.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestClient_DownloadStatus(t *testing.T) {
	l := newLauncher(t)
	l.files["game/a.pck"] = []byte("payload")

	var buf bytes.Buffer
	n, err := l.client().Download(context.Background(), l.srv.URL+"/files/game/a.pck", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "payload", buf.String())

	_, err = l.client().Download(context.Background(), l.srv.URL+"/files/game/missing", &buf)
	require.ErrorIs(t, err, ErrHTTPStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestSizesFallBack(t *testing.T) {
	p := VoicePack{Size: "10"}
	assert.Equal(t, uint64(10), p.DownloadSize())
	assert.Equal(t, uint64(0), VoicePack{Size: "n/a"}.UnpackedSize())

	d := Diff{Size: "30", PackageSize: "12"}
	assert.Equal(t, uint64(30), d.UnpackedSize())
	assert.Equal(t, uint64(12), d.DownloadSize())
}

func TestGameSource(t *testing.T) {
	l := newLauncher(t)
	l.files["game/pkg_version"] = []byte(
		`{"remoteName": "GenshinImpact_Data/a.blk", "md5": "0cc175b9c0f1b6a831c399e269772661", "fileSize": 1}` + "\n" +
			`{"remoteName": "UnityPlayer.dll", "md5": "92eb5ffee6ae2fec3ad71c777531578f", "fileSize": 1}` + "\n")

	files, err := GameSource{Client: l.client()}.FetchManifest(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "GenshinImpact_Data/a.blk", files[0].Path)
	assert.Equal(t, l.srv.URL+"/files/game/GenshinImpact_Data/a.blk", files[0].RemoteURL)
	assert.Equal(t, manifest.MD5, files[0].Checksum.Algo)
}

func TestGameSource_MissingManifest(t *testing.T) {
	l := newLauncher(t)
	_, err := GameSource{Client: l.client()}.FetchManifest(context.Background())
	require.ErrorIs(t, err, ErrHTTPStatus)
}

func TestGameSource_NoDecompressedPath(t *testing.T) {
	l := newLauncher(t)
	l.res.Data.Game.Latest.DecompressedPath = ""
	_, err := GameSource{Client: l.client()}.FetchManifest(context.Background())
	require.ErrorIs(t, err, ErrNoDecompressedPath)
}

func TestVoiceSource_ConcatenatesLocales(t *testing.T) {
	l := newLauncher(t)
	l.files["game/Audio_English(US)_pkg_version"] = []byte(
		`{"remoteName": "GenshinImpact_Data/StreamingAssets/Audio/GeneratedSoundBanks/Windows/English(US)/a.pck", "md5": "0cc175b9c0f1b6a831c399e269772661", "fileSize": 1}` + "\n")
	l.files["game/Audio_Japanese_pkg_version"] = []byte(
		`{"remoteName": "GenshinImpact_Data/StreamingAssets/Audio/GeneratedSoundBanks/Windows/Japanese/b.pck", "md5": "92eb5ffee6ae2fec3ad71c777531578f", "fileSize": 1}` + "\n")

	files, err := VoiceSource{Client: l.client(), Locales: []Locale{English, Japanese}}.FetchManifest(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, files[0].Path, "English(US)/a.pck")
	assert.Contains(t, files[1].Path, "Japanese/b.pck")

	_, err = VoiceSource{Client: l.client(), Locales: []Locale{Korean}}.FetchManifest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Korean")
}
