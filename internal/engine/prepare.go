package engine

import (
	"log/slog"

	"github.com/bamsammich/agcli/internal/filter"
	"github.com/bamsammich/agcli/internal/manifest"
)

// Prepared is the verification set left after filtering a manifest.
type Prepared struct {
	Files      []manifest.IntegrityFile
	Duplicates int
	Ignored    int
	Invalid    int
}

// Prepare normalizes entry paths, drops duplicates (first occurrence wins),
// rejects paths that are empty, absolute or escape the installation root,
// and removes entries matched by ig. Manifest order is preserved.
func Prepare(files []manifest.IntegrityFile, ig *filter.Ignore) Prepared {
	var p Prepared
	seen := make(map[string]struct{}, len(files))
	p.Files = make([]manifest.IntegrityFile, 0, len(files))

	for _, f := range files {
		f.Path = manifest.NormalizePath(f.Path)
		if err := f.Validate(); err != nil {
			slog.Warn("skipping manifest entry", "path", f.Path, "error", err)
			p.Invalid++
			continue
		}
		if _, dup := seen[f.Path]; dup {
			p.Duplicates++
			continue
		}
		seen[f.Path] = struct{}{}
		if ig.Match(f.Path) {
			p.Ignored++
			continue
		}
		p.Files = append(p.Files, f)
	}
	return p
}
