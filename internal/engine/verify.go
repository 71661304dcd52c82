package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bamsammich/agcli/internal/event"
	"github.com/bamsammich/agcli/internal/manifest"
	"github.com/bamsammich/agcli/internal/progress"
	"github.com/bamsammich/agcli/internal/stats"
)

// VerifyConfig controls the verification pass.
type VerifyConfig struct {
	Progress *progress.Mux
	Stats    stats.Writer
	Events   chan<- event.Event
	Root     string
	Threads  int
	// Fast accepts any file whose size matches without hashing it.
	Fast bool
}

// Verify checks every file against the installation under cfg.Root and
// returns the damaged ones. Missing files, size mismatches, checksum
// mismatches and unreadable files all count as damaged. The returned order
// follows worker completion, not manifest order.
func Verify(
	ctx context.Context,
	files []manifest.IntegrityFile,
	cfg VerifyConfig,
) []manifest.IntegrityFile {
	st := orCollector(cfg.Stats)
	emitEvent(cfg.Events, event.Event{
		Type:      event.VerifyStarted,
		Total:     int64(len(files)),
		TotalSize: int64(manifest.TotalSize(files)),
	})

	// Sized so no worker ever blocks on send.
	damaged := make(chan manifest.IntegrityFile, len(files))
	runBatches(ctx, files, cfg.Threads, orDiscard(cfg.Progress),
		func(_ context.Context, id int, f manifest.IntegrityFile) {
			if !CheckFile(cfg.Root, f, cfg.Fast) {
				damaged <- f
				st.AddFilesDamaged(1)
				emitEvent(cfg.Events, event.Event{
					Type:     event.FileDamaged,
					Path:     f.Path,
					Size:     int64(f.Size),
					WorkerID: id,
				})
			}
			st.AddFilesVerified(1)
		})
	close(damaged)

	out := make([]manifest.IntegrityFile, 0, len(damaged))
	for f := range damaged {
		out = append(out, f)
	}
	emitEvent(cfg.Events, event.Event{
		Type:  event.VerifyComplete,
		Total: int64(len(out)),
	})
	return out
}

// CheckFile reports whether the installed copy of f under root is intact.
func CheckFile(root string, f manifest.IntegrityFile, fast bool) bool {
	path := filepath.Join(root, filepath.FromSlash(f.Path))
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if uint64(info.Size()) != f.Size {
		return false
	}
	if fast {
		return true
	}
	sum, err := manifest.HashFile(path, f.Checksum.Algo)
	if err != nil {
		return false
	}
	return sum.Equal(f.Checksum)
}
