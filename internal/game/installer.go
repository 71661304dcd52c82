package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/agcli/internal/progress"
	"github.com/bamsammich/agcli/internal/stats"
)

// ErrUnsafeArchivePath is returned for archive entries that would be
// extracted outside the installation.
var ErrUnsafeArchivePath = errors.New("archive entry escapes the installation root")

// VoiceInstall is one voice package to download and unpack.
type VoiceInstall struct {
	Locale Locale
	Pack   VoicePack
}

// Downloader streams a URL into a writer.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// InstallVoices downloads and unpacks every package concurrently, one
// goroutine per package. Each package gets a download bar and an unpack bar
// on mux. The first failure cancels the remaining packages.
func InstallVoices(
	ctx context.Context,
	dl Downloader,
	root string,
	packages []VoiceInstall,
	mux *progress.Mux,
) error {
	if mux == nil {
		mux = progress.NewWithOptions(progress.Options{})
	}

	type bars struct{ download, unpack *progress.Bar }
	all := make([]bars, len(packages))
	for i, p := range packages {
		dlSize, unSize := p.Pack.DownloadSize(), p.Pack.UnpackedSize()
		all[i] = bars{
			download: mux.RegisterBar(int64(dlSize),
				fmt.Sprintf("%s (%s GB)", p.Locale.Name(), stats.GBString(dlSize))),
			unpack: mux.RegisterBar(int64(unSize),
				fmt.Sprintf("%s (%s GB)", p.Locale.Name(), stats.GBString(unSize))),
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range packages {
		g.Go(func() error {
			if err := installVoice(ctx, dl, root, p, all[i].download, all[i].unpack); err != nil {
				return fmt.Errorf("%s: %w", p.Locale.Name(), err)
			}
			return nil
		})
	}
	err := g.Wait()
	mux.Finish()
	return err
}

func installVoice(
	ctx context.Context,
	dl Downloader,
	root string,
	p VoiceInstall,
	dlBar, unBar *progress.Bar,
) error {
	name := path.Base(p.Pack.Path)
	if name == "." || name == "/" || name == "" {
		name = "Audio_" + p.Locale.Name() + ".zip"
	}
	archive := filepath.Join(root, name)

	f, err := os.Create(archive)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer os.Remove(archive)

	_, err = dl.Download(ctx, p.Pack.Path, io.MultiWriter(f, barWriter{dlBar}))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	dlBar.Set(dlBar.Capacity())

	if err := Unpack(ctx, archive, root, unBar); err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	unBar.Set(unBar.Capacity())
	return nil
}

// Unpack extracts the zip archive at src into dst, advancing bar by the
// number of bytes written. Entries that would land outside dst are rejected.
func Unpack(ctx context.Context, src, dst string, bar *progress.Bar) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := extract(zf, dst, bar); err != nil {
			return err
		}
	}
	return nil
}

func extract(zf *zip.File, dst string, bar *progress.Bar) error {
	name := strings.ReplaceAll(zf.Name, `\`, "/")
	clean := path.Clean(name)
	if strings.HasPrefix(name, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %s", ErrUnsafeArchivePath, zf.Name)
	}
	if clean == "." {
		return nil
	}
	target := filepath.Join(dst, filepath.FromSlash(clean))

	if zf.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	var w io.Writer = out
	if bar != nil {
		w = io.MultiWriter(out, barWriter{bar})
	}
	if _, err := io.Copy(w, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("extract %s: %w", zf.Name, err)
	}
	return out.Close()
}

// barWriter advances a progress bar by the bytes written through it.
type barWriter struct{ bar *progress.Bar }

func (b barWriter) Write(p []byte) (int, error) {
	b.bar.Advance(int64(len(p)))
	return len(p), nil
}
