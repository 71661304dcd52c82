package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/bamsammich/agcli/internal/event"
	"github.com/bamsammich/agcli/internal/manifest"
	"github.com/bamsammich/agcli/internal/platform"
	"github.com/bamsammich/agcli/internal/progress"
	"github.com/bamsammich/agcli/internal/stats"
)

// partSuffix marks an in-flight download next to its destination.
const partSuffix = ".part"

// Fetcher streams the resource at url into w and returns the bytes written.
type Fetcher interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// RepairConfig controls the repair pass.
type RepairConfig struct {
	Fetcher  Fetcher
	Progress *progress.Mux
	Stats    stats.Writer
	Events   chan<- event.Event
	// Limiter caps aggregate download throughput when non-nil.
	Limiter *rate.Limiter
	Root    string
	Threads int
}

// Repair downloads a fresh copy of every damaged file and returns the files
// that could not be restored. A file is only replaced once its size and
// checksum match the manifest; until then the download lives in a .part
// sibling that is removed on failure.
func Repair(
	ctx context.Context,
	damaged []manifest.IntegrityFile,
	cfg RepairConfig,
) []Failure {
	st := orCollector(cfg.Stats)
	emitEvent(cfg.Events, event.Event{
		Type:      event.RepairStarted,
		Total:     int64(len(damaged)),
		TotalSize: int64(manifest.TotalSize(damaged)),
	})

	failures := make(chan Failure, len(damaged))
	runBatches(ctx, damaged, cfg.Threads, orDiscard(cfg.Progress),
		func(ctx context.Context, id int, f manifest.IntegrityFile) {
			n, err := repairFile(ctx, cfg, f)
			if err != nil {
				var fail Failure
				if !errors.As(err, &fail) {
					fail = Failure{File: f, Kind: Io, Err: err}
				}
				failures <- fail
				st.AddFilesFailed(1)
				emitEvent(cfg.Events, event.Event{
					Type:     event.RepairFailed,
					Path:     f.Path,
					Size:     int64(f.Size),
					Error:    fail,
					WorkerID: id,
				})
				return
			}
			st.AddFilesRepaired(1)
			st.AddBytesDownloaded(n)
			emitEvent(cfg.Events, event.Event{
				Type:     event.FileRepaired,
				Path:     f.Path,
				Size:     n,
				WorkerID: id,
			})
		})
	close(failures)

	out := make([]Failure, 0, len(failures))
	for f := range failures {
		out = append(out, f)
	}
	emitEvent(cfg.Events, event.Event{
		Type:  event.RepairComplete,
		Total: int64(len(out)),
	})
	return out
}

// repairFile downloads f into place and returns the number of bytes fetched.
// A download in progress is not tied to ctx cancellation: an interrupted run
// stops between files, so the file a worker is on is always finished.
func repairFile(ctx context.Context, cfg RepairConfig, f manifest.IntegrityFile) (int64, error) {
	fail := func(kind ErrorKind, err error) (int64, error) {
		return 0, Failure{File: f, Kind: kind, Err: err}
	}

	dst := filepath.Join(cfg.Root, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fail(Io, err)
	}

	hasher, err := manifest.NewHasher(f.Checksum.Algo)
	if err != nil {
		return fail(Io, err)
	}

	tmp := dst + partSuffix
	fd, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fail(Io, err)
	}
	RegisterTmp(tmp)
	defer DeregisterTmp(tmp)

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp)
		}
	}()

	platform.Preallocate(fd, int64(f.Size))

	dlCtx := context.WithoutCancel(ctx)
	sink := &sinkWriter{w: io.MultiWriter(fd, hasher)}
	var w io.Writer = sink
	if cfg.Limiter != nil {
		w = newRateLimitedWriter(dlCtx, sink, cfg.Limiter)
	}

	_, dlErr := cfg.Fetcher.Download(dlCtx, f.RemoteURL, w)
	closeErr := fd.Close()
	switch {
	case sink.err != nil:
		return fail(Io, sink.err)
	case dlErr != nil:
		return fail(Network, dlErr)
	case closeErr != nil:
		return fail(Io, closeErr)
	}

	if uint64(sink.n) != f.Size {
		return fail(SizeMismatch,
			fmt.Errorf("expected %d bytes, got %d", f.Size, sink.n))
	}
	got := manifest.Checksum{Algo: f.Checksum.Algo, Sum: hasher.Sum(nil)}
	if !got.Equal(f.Checksum) {
		return fail(ChecksumMismatch,
			fmt.Errorf("expected %s, got %s", f.Checksum, got))
	}

	if err := os.Rename(tmp, dst); err != nil {
		return fail(Io, err)
	}
	committed = true
	return sink.n, nil
}

// sinkWriter counts bytes reaching local storage and remembers the first
// local write error, so callers can tell disk failures from network ones.
type sinkWriter struct {
	w   io.Writer
	err error
	n   int64
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.n += int64(n)
	if err != nil && s.err == nil {
		s.err = err
	}
	return n, err
}
