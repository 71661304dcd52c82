// Package patch manages the community Linux patch: a git repository with
// one directory per game version holding patch.sh and patch_revert.sh.
package patch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bamsammich/agcli/internal/game"
)

const (
	applyScript  = "patch.sh"
	revertScript = "patch_revert.sh"
	// appliedMarker is the backup the patch script leaves next to the
	// original player library.
	appliedMarker = "UnityPlayer.dll.bak"
	// testingMarker appears uncommented in patch.sh while the patch is
	// still being tested.
	testingMarker = `echo "If you would like to test this patch, modify this script and remove the line below this one."`
)

var (
	ErrPatchHostsMissing = errors.New("missing patch hosts")
	ErrNotApplicable     = errors.New("patch is not in stable nor testing stage")
	ErrNotApplied        = errors.New("patch is not applied")
	ErrAlreadyApplied    = errors.New("patch is already applied")
)

// Status is the state of the patch for the latest game version.
type Status int

const (
	NotAvailable Status = iota
	Outdated
	Preparation
	Testing
	Available
)

func (s Status) String() string {
	switch s {
	case NotAvailable:
		return "NotAvailable"
	case Outdated:
		return "Outdated"
	case Preparation:
		return "Preparation"
	case Testing:
		return "Testing"
	case Available:
		return "Available"
	default:
		return "Unknown"
	}
}

// Info describes the synced patch relative to the latest game version.
type Info struct {
	Dir     string
	Status  Status
	Version game.Version
	Latest  game.Version
}

// Applicable reports whether the patch can be applied or reverted.
func (i Info) Applicable() bool {
	return i.Status == Testing || i.Status == Available
}

// Repo is a local clone of the patch repository.
type Repo struct {
	Runner Runner
	Dir    string
	Hosts  []string
}

// New returns a Repo at dir that syncs from hosts.
func New(dir string, hosts []string) (*Repo, error) {
	if len(hosts) == 0 {
		return nil, ErrPatchHostsMissing
	}
	return &Repo{Dir: dir, Hosts: hosts, Runner: ExecRunner{}}, nil
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	out, err := r.Runner.Run(ctx, Command{Dir: r.Dir, Name: "git", Args: args})
	return strings.TrimSpace(string(out)), err
}

func (r *Repo) cloned() bool {
	info, err := os.Stat(filepath.Join(r.Dir, ".git"))
	return err == nil && info.IsDir()
}

// IsSynced reports whether the clone exists, tracks one of the configured
// hosts and matches its upstream head.
func (r *Repo) IsSynced(ctx context.Context) (bool, error) {
	if !r.cloned() {
		return false, nil
	}
	origin, err := r.git(ctx, "remote", "get-url", "origin")
	if err != nil {
		return false, err
	}
	if !slices.Contains(r.Hosts, origin) {
		slog.Debug("patch origin not in hosts", "origin", origin)
		return false, nil
	}
	if _, err := r.git(ctx, "fetch", "--quiet", "origin"); err != nil {
		return false, err
	}
	local, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return false, err
	}
	remote, err := r.git(ctx, "rev-parse", "FETCH_HEAD")
	if err != nil {
		return false, err
	}
	return local == remote, nil
}

// Sync clones host, or points an existing clone at host and resets it to
// the upstream head.
func (r *Repo) Sync(ctx context.Context, host string) error {
	if !r.cloned() {
		if err := os.MkdirAll(filepath.Dir(r.Dir), 0o755); err != nil {
			return err
		}
		_, err := r.Runner.Run(ctx, Command{
			Dir:  filepath.Dir(r.Dir),
			Name: "git",
			Args: []string{"clone", "--quiet", host, r.Dir},
		})
		return err
	}
	steps := [][]string{
		{"remote", "set-url", "origin", host},
		{"fetch", "--quiet", "origin"},
		{"reset", "--hard", "--quiet", "FETCH_HEAD"},
	}
	for _, args := range steps {
		if _, err := r.git(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// SyncAny tries hosts in order and returns the first that synced. Unless
// all is set only the first host is tried. onFail is called for every host
// that failed.
func (r *Repo) SyncAny(ctx context.Context, all bool, onFail func(host string, err error)) (string, error) {
	hosts := r.Hosts
	if !all {
		hosts = hosts[:1]
	}
	var errs []error
	for _, h := range hosts {
		err := r.Sync(ctx, h)
		if err == nil {
			return h, nil
		}
		if onFail != nil {
			onFail(h, err)
		}
		errs = append(errs, err)
	}
	return "", fmt.Errorf("failed to sync patch: %w", errors.Join(errs...))
}

// Status inspects the synced version directories against latest.
func (r *Repo) Status(latest game.Version) (Info, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return Info{}, fmt.Errorf("read patch folder: %w", err)
	}

	info := Info{Status: NotAvailable, Latest: latest}
	var newest game.Version
	found := false
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, ok := dirVersion(e.Name())
		if !ok {
			continue
		}
		if v == latest {
			info.Dir = filepath.Join(r.Dir, e.Name())
			info.Version = v
			info.Status = scriptStatus(info.Dir)
			return info, nil
		}
		if !found || v.Compare(newest) > 0 {
			newest = v
			found = true
			info.Dir = filepath.Join(r.Dir, e.Name())
		}
	}
	if found {
		info.Status = Outdated
		info.Version = newest
	}
	return info, nil
}

func scriptStatus(dir string) Status {
	script, err := os.ReadFile(filepath.Join(dir, applyScript))
	if err != nil {
		return Preparation
	}
	for _, line := range strings.Split(string(script), "\n") {
		if strings.TrimSpace(line) == testingMarker {
			return Testing
		}
	}
	return Available
}

// dirVersion parses version directories named "280" or "2.8.0".
func dirVersion(name string) (game.Version, bool) {
	if strings.Contains(name, ".") {
		v, err := game.ParseVersion(name)
		return v, err == nil
	}
	if len(name) < 2 || len(name) > 3 {
		return game.Version{}, false
	}
	var v game.Version
	for i, c := range name {
		if c < '0' || c > '9' {
			return game.Version{}, false
		}
		v[i] = int(c - '0')
	}
	return v, true
}

// IsApplied reports whether the patch is applied to the game under root.
func IsApplied(root string) bool {
	_, err := os.Stat(filepath.Join(root, appliedMarker))
	return err == nil
}

// Apply runs patch.sh of info from the game root.
func (r *Repo) Apply(ctx context.Context, gameRoot string, info Info) error {
	if !info.Applicable() {
		return ErrNotApplicable
	}
	if IsApplied(gameRoot) {
		return ErrAlreadyApplied
	}
	return r.runScript(ctx, gameRoot, info, applyScript)
}

// Revert runs patch_revert.sh of info from the game root. Unless force is
// set it refuses when the patch does not look applied.
func (r *Repo) Revert(ctx context.Context, gameRoot string, info Info, force bool) error {
	if !info.Applicable() {
		return ErrNotApplicable
	}
	if !force && !IsApplied(gameRoot) {
		return ErrNotApplied
	}
	return r.runScript(ctx, gameRoot, info, revertScript)
}

func (r *Repo) runScript(ctx context.Context, gameRoot string, info Info, script string) error {
	out, err := r.Runner.Run(ctx, Command{
		Dir:   gameRoot,
		Name:  "bash",
		Args:  []string{filepath.Join(info.Dir, script)},
		Stdin: strings.NewReader("y\n"),
	})
	slog.Debug("patch script finished", "script", script, "output", string(out))
	return err
}
