package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/agcli/internal/filter"
	"github.com/bamsammich/agcli/internal/manifest"
)

func TestPrepare(t *testing.T) {
	files := []manifest.IntegrityFile{
		{Path: `GenshinImpact_Data\Persistent\a.blk`, Size: 1},
		{Path: "GenshinImpact_Data/Persistent/a.blk", Size: 2},
		{Path: "UnityPlayer.dll", Size: 3},
		{Path: "../outside", Size: 4},
		{Path: "/etc/passwd", Size: 5},
		{Path: "", Size: 6},
		{Path: "b.pck", Size: 7},
	}

	p := Prepare(files, filter.NewIgnore("unityplayer.dll"))

	assert.Equal(t, []string{"GenshinImpact_Data/Persistent/a.blk", "b.pck"}, paths(p.Files))
	assert.Equal(t, uint64(1), p.Files[0].Size, "first occurrence wins")
	assert.Equal(t, 1, p.Duplicates)
	assert.Equal(t, 1, p.Ignored)
	assert.Equal(t, 3, p.Invalid)
}

func TestPrepare_NoIgnore(t *testing.T) {
	p := Prepare(sized(1, 2, 3), nil)
	assert.Len(t, p.Files, 3)
	assert.Zero(t, p.Ignored)
}
