package game

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ConfigFile is the launcher's per-installation settings file.
const ConfigFile = "config.ini"

// ErrNotInstalled is returned when no installed version can be determined.
var ErrNotInstalled = errors.New("game is not installed")

// Version is a dotted major.minor.patch release number.
type Version [3]int

// ParseVersion parses "2.8.0". Missing trailing components are zero.
func ParseVersion(s string) (Version, error) {
	var v Version
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return v, fmt.Errorf("invalid version %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return v, fmt.Errorf("invalid version %q", s)
		}
		v[i] = n
	}
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	for i := range v {
		switch {
		case v[i] < o[i]:
			return -1
		case v[i] > o[i]:
			return 1
		}
	}
	return 0
}

// InstalledVersion reads game_version from <root>/config.ini.
func InstalledVersion(root string) (Version, error) {
	f, err := os.Open(filepath.Join(root, ConfigFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Version{}, ErrNotInstalled
		}
		return Version{}, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == ';' || line[0] == '#' || line[0] == '[' {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(key) == "game_version" {
			return ParseVersion(value)
		}
	}
	if err := sc.Err(); err != nil {
		return Version{}, err
	}
	return Version{}, ErrNotInstalled
}

// DiffKind classifies an installation against the latest release.
type DiffKind int

const (
	NotInstalled DiffKind = iota
	UpToDate
	UpdateAvailable
	Outdated
)

func (k DiffKind) String() string {
	switch k {
	case NotInstalled:
		return "NotInstalled"
	case UpToDate:
		return "Latest"
	case UpdateAvailable:
		return "Diff"
	case Outdated:
		return "Outdated"
	default:
		return "Unknown"
	}
}

// VersionDiff is the result of comparing an installation with the API.
type VersionDiff struct {
	// Update is set for UpdateAvailable.
	Update  *Diff
	Kind    DiffKind
	Current Version
	Latest  Version
}

// Compare classifies the installation under root against res.
func Compare(root string, res Resource) (VersionDiff, error) {
	latest, err := ParseVersion(res.Data.Game.Latest.Version)
	if err != nil {
		return VersionDiff{}, fmt.Errorf("latest version: %w", err)
	}

	current, err := InstalledVersion(root)
	if errors.Is(err, ErrNotInstalled) {
		return VersionDiff{Kind: NotInstalled, Latest: latest}, nil
	}
	if err != nil {
		return VersionDiff{}, fmt.Errorf("installed version: %w", err)
	}

	d := VersionDiff{Current: current, Latest: latest}
	if current.Compare(latest) >= 0 {
		d.Kind = UpToDate
		return d, nil
	}
	for i := range res.Data.Game.Diffs {
		diff := res.Data.Game.Diffs[i]
		from, err := ParseVersion(diff.Version)
		if err == nil && from == current {
			d.Kind = UpdateAvailable
			d.Update = &diff
			return d, nil
		}
	}
	d.Kind = Outdated
	return d, nil
}
