package ui

import (
	"fmt"
	"time"

	"github.com/bamsammich/agcli/internal/stats"
)

// FormatRate formats a bytes-per-second rate as a human-readable string.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	return stats.FormatBytes(int64(bytesPerSec)) + "/s"
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatGB renders a byte count the way package listings show it: "1.25 GB".
func FormatGB(bytes uint64) string {
	return stats.GBString(bytes) + " GB"
}

// CompletionSummary builds the final summary line of a verify/repair run.
// Format: done ✓  files 48,917  verified 48,917  damaged 2  repaired 2  downloaded 1.2 MiB  time 3m 17s  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.FilesFailed > 0 {
		icon = "✗"
	}

	line := fmt.Sprintf("done %s  files %s  verified %s  damaged %s",
		icon,
		stats.FormatCount(snap.FilesTotal),
		stats.FormatCount(snap.FilesVerified),
		stats.FormatCount(snap.FilesDamaged),
	)
	if snap.FilesRepaired > 0 || snap.BytesDownloaded > 0 {
		line += fmt.Sprintf("  repaired %s  downloaded %s",
			stats.FormatCount(snap.FilesRepaired),
			stats.FormatBytes(snap.BytesDownloaded))
		if secs := snap.Elapsed.Seconds(); secs > 0 {
			line += "  avg " + FormatRate(float64(snap.BytesDownloaded)/secs)
		}
	}
	if snap.FilesIgnored > 0 {
		line += fmt.Sprintf("  ignored %s", stats.FormatCount(snap.FilesIgnored))
	}
	line += fmt.Sprintf("  time %s  errors %d", FormatDuration(snap.Elapsed), snap.FilesFailed)
	return line
}
