// Package launch starts the game under wine.
package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
)

// Script is the batch file started inside the game directory.
const Script = "launcher.bat"

// ErrNoGamePath is returned when the game directory is unset.
var ErrNoGamePath = errors.New("game path is not set")

// Options describe how to start the game.
type Options struct {
	Env        map[string]string
	GameDir    string
	Executable string
	Prefix     string
}

// Command builds the wine invocation without starting it.
func Command(opts Options) (*exec.Cmd, error) {
	if opts.GameDir == "" {
		return nil, ErrNoGamePath
	}
	executable := opts.Executable
	if executable == "" {
		executable = "wine"
	}

	cmd := exec.Command(executable, Script)
	cmd.Dir = opts.GameDir
	cmd.Env = os.Environ()

	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Env = append(cmd.Env, k+"="+opts.Env[k])
	}
	cmd.Env = append(cmd.Env, "WINEPREFIX="+opts.Prefix)
	return cmd, nil
}

// Start launches the game and returns without waiting for it to exit.
func Start(opts Options) (*os.Process, error) {
	cmd, err := Command(opts)
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	return cmd.Process, nil
}
