package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultLauncherAPI is the launcher resource endpoint of the global
	// game release.
	DefaultLauncherAPI = "https://sdk-os-static.hoyoverse.com/hk4e_global/mdk/launcher/api/resource?key=gcStgarh&launcher_id=10"
	// DefaultPatchHost is the upstream repository of the Linux patch.
	DefaultPatchHost = "https://notabug.org/Krock/dawn"

	appName  = "agcli"
	fileName = "config.toml"
)

// ErrUnknownKey is returned by Set for keys outside the document.
var ErrUnknownKey = errors.New("unknown config key")

// Config is the agcli configuration document.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	Launcher LauncherConfig `toml:"launcher"`
	Patch    PatchConfig    `toml:"patch"`
	Wine     WineConfig     `toml:"wine"`
	Repair   RepairConfig   `toml:"repair"`
}

// PathsConfig locates the installation and the local patch repository.
type PathsConfig struct {
	Game  string `toml:"game"`
	Patch string `toml:"patch"`
}

// LauncherConfig points at the launcher resource API.
type LauncherConfig struct {
	API string `toml:"api"`
}

// PatchConfig lists the patch repository mirrors, tried in order.
type PatchConfig struct {
	Hosts []string `toml:"hosts"`
}

// WineConfig controls how the game is launched.
type WineConfig struct {
	Environment map[string]string `toml:"environment"`
	Prefix      string            `toml:"prefix"`
	Executable  string            `toml:"executable"`
}

// RepairConfig holds persistent defaults for the repair flags. Nil fields
// were not set in the file.
type RepairConfig struct {
	Threads       *int     `toml:"threads,omitempty"`
	VerifyThreads *int     `toml:"verify_threads,omitempty"`
	RepairThreads *int     `toml:"repair_threads,omitempty"`
	Ignore        []string `toml:"ignore,omitempty"`
	Fast          *bool    `toml:"fast,omitempty"`
	BWLimit       *string  `toml:"bwlimit,omitempty"`
}

// Default returns the document written on first run.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			Patch: filepath.Join(Dir(), "patch"),
		},
		Launcher: LauncherConfig{API: DefaultLauncherAPI},
		Patch:    PatchConfig{Hosts: []string{DefaultPatchHost}},
		Wine: WineConfig{
			Executable:  "wine",
			Environment: map[string]string{},
		},
	}
}

// Dir returns the agcli config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, fileName)
}

// StateDir returns the directory for runtime state such as the
// installation lock.
func StateDir() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return os.TempDir()
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, appName)
}

// Load reads the config at path, or at Path() when path is empty. A missing
// file is created with Default() and that document is returned.
func Load(path string) (Config, error) {
	if path == "" {
		path = Path()
	}
	if path == "" {
		return Default(), nil
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
		cfg = Default()
		if err := Save(path, cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Encode renders cfg as TOML.
func Encode(cfg Config) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Keys lists the dotted keys accepted by Set. Environment variables use
// "wine.environment.NAME".
func Keys() []string {
	return []string{
		"paths.game", "paths.patch",
		"launcher.api",
		"patch.hosts",
		"wine.prefix", "wine.executable", "wine.environment.<NAME>",
		"repair.threads", "repair.verify_threads", "repair.repair_threads",
		"repair.ignore", "repair.fast", "repair.bwlimit",
	}
}

// Set updates one dotted key of cfg. List values are comma-separated; an
// empty value clears optional repair defaults.
func (c *Config) Set(key, value string) error {
	if name, ok := strings.CutPrefix(key, "wine.environment."); ok && name != "" {
		if c.Wine.Environment == nil {
			c.Wine.Environment = map[string]string{}
		}
		if value == "" {
			delete(c.Wine.Environment, name)
		} else {
			c.Wine.Environment[name] = value
		}
		return nil
	}

	switch key {
	case "paths.game":
		c.Paths.Game = value
	case "paths.patch":
		c.Paths.Patch = value
	case "launcher.api":
		c.Launcher.API = value
	case "patch.hosts":
		c.Patch.Hosts = splitList(value)
	case "wine.prefix":
		c.Wine.Prefix = value
	case "wine.executable":
		c.Wine.Executable = value
	case "repair.threads":
		return setInt(&c.Repair.Threads, key, value)
	case "repair.verify_threads":
		return setInt(&c.Repair.VerifyThreads, key, value)
	case "repair.repair_threads":
		return setInt(&c.Repair.RepairThreads, key, value)
	case "repair.ignore":
		c.Repair.Ignore = splitList(value)
	case "repair.fast":
		if value == "" {
			c.Repair.Fast = nil
			return nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Repair.Fast = &b
	case "repair.bwlimit":
		if value == "" {
			c.Repair.BWLimit = nil
			return nil
		}
		c.Repair.BWLimit = &value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

func setInt(dst **int, key, value string) error {
	if value == "" {
		*dst = nil
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if n < 1 {
		return fmt.Errorf("%s: must be at least 1", key)
	}
	*dst = &n
	return nil
}

// splitList never returns nil so an emptied list survives Save and Load
// instead of falling back to the default.
func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
