package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddFilesVerified(1)
				c.AddFilesDamaged(1)
				c.AddFilesRepaired(1)
				c.AddFilesFailed(1)
				c.AddFilesIgnored(1)
				c.AddBytesDownloaded(256)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	expected := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, expected, s.FilesVerified)
	assert.Equal(t, expected, s.FilesDamaged)
	assert.Equal(t, expected, s.FilesRepaired)
	assert.Equal(t, expected, s.FilesFailed)
	assert.Equal(t, expected, s.FilesIgnored)
	assert.Equal(t, expected*256, s.BytesDownloaded)
}

func TestSetTotals(t *testing.T) {
	c := NewCollector()
	c.SetTotals(10, 4096)
	s := c.Snapshot()
	assert.Equal(t, int64(10), s.FilesTotal)
	assert.Equal(t, int64(4096), s.BytesTotal)
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{FilesTotal: 10, FilesVerified: 10, FilesDamaged: 2, FilesRepaired: 1, FilesFailed: 1}
	assert.Equal(t,
		"total=10 verified=10 damaged=2 repaired=1 failed=1 ignored=0 downloaded=0",
		s.String())
}

func TestElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, c.Elapsed(), 5*time.Millisecond)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "-1.0 KiB", FormatBytes(-1024))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "48,917", FormatCount(48917))
}

func TestFormatGB(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  float64
	}{
		{0, 0},
		{1, 0.01},
		{1 << 30, 1},
		{(1 << 30) + 1, 1.01},
		{5 * (1 << 30) / 2, 2.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, FormatGB(tt.bytes), 1e-9, "bytes=%d", tt.bytes)
	}
}

func TestGBString(t *testing.T) {
	assert.Equal(t, "0", GBString(0))
	assert.Equal(t, "0.01", GBString(1))
	assert.Equal(t, "1", GBString(1<<30))
	assert.Equal(t, "2.5", GBString(5<<29))
}
