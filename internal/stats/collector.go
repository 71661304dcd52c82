package stats

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Writer is the write side of a Collector, used by engine workers.
type Writer interface {
	SetTotals(files, bytes int64)
	AddFilesVerified(n int64)
	AddFilesDamaged(n int64)
	AddFilesRepaired(n int64)
	AddFilesFailed(n int64)
	AddFilesIgnored(n int64)
	AddBytesDownloaded(n int64)
}

// Collector tracks verify/repair statistics using lock-free atomic counters.
type Collector struct {
	startTime       time.Time
	filesTotal      atomic.Int64
	bytesTotal      atomic.Int64
	filesVerified   atomic.Int64
	filesDamaged    atomic.Int64
	filesRepaired   atomic.Int64
	filesFailed     atomic.Int64
	filesIgnored    atomic.Int64
	bytesDownloaded atomic.Int64
}

var _ Writer = (*Collector)(nil)

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records the size of the verification set.
func (c *Collector) SetTotals(files, bytes int64) {
	c.filesTotal.Store(files)
	c.bytesTotal.Store(bytes)
}

func (c *Collector) AddFilesVerified(n int64)   { c.filesVerified.Add(n) }
func (c *Collector) AddFilesDamaged(n int64)    { c.filesDamaged.Add(n) }
func (c *Collector) AddFilesRepaired(n int64)   { c.filesRepaired.Add(n) }
func (c *Collector) AddFilesFailed(n int64)     { c.filesFailed.Add(n) }
func (c *Collector) AddFilesIgnored(n int64)    { c.filesIgnored.Add(n) }
func (c *Collector) AddBytesDownloaded(n int64) { c.bytesDownloaded.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesTotal      int64
	BytesTotal      int64
	FilesVerified   int64
	FilesDamaged    int64
	FilesRepaired   int64
	FilesFailed     int64
	FilesIgnored    int64
	BytesDownloaded int64
	Elapsed         time.Duration
}

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesTotal:      c.filesTotal.Load(),
		BytesTotal:      c.bytesTotal.Load(),
		FilesVerified:   c.filesVerified.Load(),
		FilesDamaged:    c.filesDamaged.Load(),
		FilesRepaired:   c.filesRepaired.Load(),
		FilesFailed:     c.filesFailed.Load(),
		FilesIgnored:    c.filesIgnored.Load(),
		BytesDownloaded: c.bytesDownloaded.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"total=%d verified=%d damaged=%d repaired=%d failed=%d ignored=%d downloaded=%d",
		s.FilesTotal, s.FilesVerified, s.FilesDamaged, s.FilesRepaired,
		s.FilesFailed, s.FilesIgnored, s.BytesDownloaded,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	if b < 0 {
		return "-" + humanize.IBytes(uint64(-b))
	}
	return humanize.IBytes(uint64(b))
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatGB converts bytes to gibibytes rounded up to two decimals, the
// unit used in worker labels and package listings.
func FormatGB(bytes uint64) float64 {
	return math.Ceil(float64(bytes)/1024/1024/1024*100) / 100
}

// GBString renders FormatGB without trailing zeros ("2.5", "0.01", "1").
func GBString(bytes uint64) string {
	return strconv.FormatFloat(FormatGB(bytes), 'f', -1, 64)
}
