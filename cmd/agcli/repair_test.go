package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/agcli/internal/config"
	"github.com/bamsammich/agcli/internal/engine"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"verify threads", []string{"game", "repair", "-vt", "8"}, []string{"game", "repair", "--verify-threads", "8"}},
		{"repair threads with value", []string{"-rt=2"}, []string{"--repair-threads=2"}},
		{"ignore shorthand", []string{"-i=unityplayer.dll,foo"}, []string{"--ignore=unityplayer.dll,foo"}},
		{"single letter flags untouched", []string{"-v", "-t", "3", "-f"}, []string{"-v", "-t", "3", "-f"}},
		{"after double dash untouched", []string{"--", "-vt"}, []string{"--", "-vt"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeArgs(tt.in))
		})
	}
}

// parseRepairFlags parses args the way a repair command would and resolves
// them against defaults.
func parseRepairFlags(t *testing.T, defaults config.RepairConfig, args ...string) (engine.Options, error) {
	t.Helper()
	var f repairFlags
	cmd := &cobra.Command{Use: "repair"}
	f.register(cmd.Flags())
	require.NoError(t, cmd.ParseFlags(normalizeArgs(args)))
	applyConfigDefaults(cmd, defaults, &f)
	return f.options()
}

func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestRepairFlags_Defaults(t *testing.T) {
	opts, err := parseRepairFlags(t, config.RepairConfig{})
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultOptions(), opts)
}

func TestRepairFlags_ThreadsAndOverrides(t *testing.T) {
	opts, err := parseRepairFlags(t, config.RepairConfig{}, "-t", "8")
	require.NoError(t, err)
	assert.Equal(t, 8, opts.VerifyThreads)
	assert.Equal(t, 8, opts.RepairThreads)

	opts, err = parseRepairFlags(t, config.RepairConfig{}, "-t", "8", "-vt", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, opts.VerifyThreads)
	assert.Equal(t, 8, opts.RepairThreads)

	opts, err = parseRepairFlags(t, config.RepairConfig{}, "-rt=3")
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultThreads, opts.VerifyThreads)
	assert.Equal(t, 3, opts.RepairThreads)
}

func TestRepairFlags_IgnoreSpellings(t *testing.T) {
	opts, err := parseRepairFlags(t, config.RepairConfig{},
		"--ignore=a.dll,b.dll", "-i=c", "--skip=d", "--skip", "e")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.dll", "b.dll", "c", "d", "e"}, opts.Ignore)
}

func TestRepairFlags_BoolsAndBWLimit(t *testing.T) {
	opts, err := parseRepairFlags(t, config.RepairConfig{}, "-v", "-f", "--bwlimit", "1M")
	require.NoError(t, err)
	assert.True(t, opts.VerifyOnly)
	assert.True(t, opts.Fast)
	assert.Equal(t, int64(1024*1024), opts.BWLimit)

	_, err = parseRepairFlags(t, config.RepairConfig{}, "--bwlimit", "lots")
	require.ErrorIs(t, err, engine.ErrInvalidConfig)
}

func TestRepairFlags_ConfigDefaults(t *testing.T) {
	defaults := config.RepairConfig{
		Threads:       intPtr(6),
		RepairThreads: intPtr(2),
		Ignore:        []string{"unityplayer.dll"},
		Fast:          boolPtr(true),
		BWLimit:       strPtr("2K"),
	}

	opts, err := parseRepairFlags(t, defaults)
	require.NoError(t, err)
	assert.Equal(t, 6, opts.VerifyThreads)
	assert.Equal(t, 2, opts.RepairThreads)
	assert.Equal(t, []string{"unityplayer.dll"}, opts.Ignore)
	assert.True(t, opts.Fast)
	assert.Equal(t, int64(2048), opts.BWLimit)

	// Flags set on the command line win.
	opts, err = parseRepairFlags(t, defaults, "-t", "1", "--ignore=x", "--fast=false", "--bwlimit=1K")
	require.NoError(t, err)
	assert.Equal(t, 1, opts.VerifyThreads)
	assert.Equal(t, 1, opts.RepairThreads, "--threads beats per-phase config defaults")
	assert.Equal(t, []string{"x"}, opts.Ignore)
	assert.False(t, opts.Fast)
	assert.Equal(t, int64(1024), opts.BWLimit)
}

func TestRepairFlags_ZeroThreadsRejectedByEngine(t *testing.T) {
	opts, err := parseRepairFlags(t, config.RepairConfig{}, "-t", "0")
	require.NoError(t, err)
	require.ErrorIs(t, opts.Validate(), engine.ErrInvalidConfig)
}
