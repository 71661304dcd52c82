package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/agcli/internal/manifest"
)

func staticSource(files ...manifest.IntegrityFile) Source {
	return SourceFunc(func(context.Context) ([]manifest.IntegrityFile, error) {
		return files, nil
	})
}

func TestRun_AllGoodFastMode(t *testing.T) {
	root := t.TempDir()
	a := make([]byte, 10)
	b := make([]byte, 20)
	writeFile(t, root, "a", a)
	writeFile(t, root, "b", b)

	rep := &recorder{}
	opts := DefaultOptions()
	opts.Fast = true
	opts.VerifyThreads = 2
	res := Run(context.Background(), Config{
		Root:     root,
		Source:   staticSource(md5Entry(t, "a", a, ""), md5Entry(t, "b", b, "")),
		Reporter: rep,
		Options:  opts,
	})

	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Empty(t, res.Damaged)
	assert.NotContains(t, res.Trace, Repairing)
	assert.Equal(t, []State{Idle, Fetching, Filtering, Verifying, Collecting, Finished}, res.Trace)
	assert.Contains(t, rep.notices, "Verifying 2 files (0.01 GB) in 2 threads:")
}

func TestRun_RepairsMissingFile(t *testing.T) {
	root := t.TempDir()
	rm := newRemote(t)
	c := []byte("012345678901234567890123456789")
	require.Len(t, c, 30)

	opts := DefaultOptions()
	opts.VerifyThreads = 1
	opts.RepairThreads = 1
	res := Run(context.Background(), Config{
		Root:    root,
		Source:  staticSource(md5Entry(t, "c", c, rm.serve("c", c))),
		Fetcher: httpFetcher{},
		Options: opts,
	})

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"c"}, paths(res.Damaged))
	assert.Empty(t, res.Failures)
	assert.Equal(t, c, readFile(t, root, "c"))
	assert.Equal(t, []State{Idle, Fetching, Filtering, Verifying, Collecting, Repairing, Reporting, Finished}, res.Trace)
	assert.Equal(t, int64(1), res.Stats.FilesRepaired)
}

func TestRun_VerifyOnlyLeavesFilesUntouched(t *testing.T) {
	root := t.TempDir()
	rm := newRemote(t)
	want := []byte("correct contents")
	have := []byte("CORRECT CONTENTS")
	writeFile(t, root, "d", have)

	rep := &recorder{}
	opts := DefaultOptions()
	opts.VerifyOnly = true
	res := Run(context.Background(), Config{
		Root:     root,
		Source:   staticSource(md5Entry(t, "d", want, rm.serve("d", want))),
		Fetcher:  httpFetcher{},
		Reporter: rep,
		Options:  opts,
	})

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"d"}, paths(res.Damaged))
	assert.NotContains(t, res.Trace, Repairing)
	assert.Equal(t, have, readFile(t, root, "d"))
	assert.Zero(t, rm.requests("d"))
	assert.Equal(t, []string{"Found 1 broken files\n- d"}, rep.warns)
}

func TestRun_IgnoreListSkipsMatches(t *testing.T) {
	root := t.TempDir()
	rm := newRemote(t)
	want := []byte("real player")
	writeFile(t, root, "UnityPlayer.dll", []byte("fake player"))

	opts := DefaultOptions()
	opts.Ignore = []string{"unityplayer.dll"}
	rep := &recorder{}
	res := Run(context.Background(), Config{
		Root:     root,
		Source:   staticSource(md5Entry(t, "UnityPlayer.dll", want, rm.serve("UnityPlayer.dll", want))),
		Fetcher:  httpFetcher{},
		Reporter: rep,
		Options:  opts,
	})

	assert.Equal(t, OutcomeNothingToDo, res.Outcome)
	assert.Empty(t, res.Damaged)
	assert.Zero(t, rm.requests("UnityPlayer.dll"))
	assert.Equal(t, int64(1), res.Stats.FilesIgnored)
	assert.Equal(t, []string{"No files found to verify"}, rep.warns)
}

func TestRun_IgnoreListWithRemainingFiles(t *testing.T) {
	root := t.TempDir()
	keep := []byte("kept")
	writeFile(t, root, "data/kept.pck", keep)
	writeFile(t, root, "UnityPlayer.dll", []byte("bad"))

	opts := DefaultOptions()
	opts.Ignore = []string{"UNITYPLAYER"}
	res := Run(context.Background(), Config{
		Root: root,
		Source: staticSource(
			md5Entry(t, "UnityPlayer.dll", []byte("good"), ""),
			md5Entry(t, "data/kept.pck", keep, ""),
		),
		Options: opts,
	})

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Empty(t, res.Damaged)
}

func TestRun_PartialRepairFailure(t *testing.T) {
	root := t.TempDir()
	rm := newRemote(t)
	good := []byte("repairable")
	bad := []byte("unreachable")

	rep := &recorder{}
	res := Run(context.Background(), Config{
		Root: root,
		Source: staticSource(
			md5Entry(t, "good.pck", good, rm.serve("good.pck", good)),
			md5Entry(t, "bad.pck", bad, rm.url("bad.pck")),
		),
		Fetcher:  httpFetcher{},
		Reporter: rep,
		Options:  DefaultOptions(),
	})

	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeOK, res.Outcome)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "bad.pck", res.Failures[0].File.Path)
	assert.Equal(t, Network, res.Failures[0].Kind)
	assert.Equal(t, good, readFile(t, root, "good.pck"))
	assert.Equal(t, []string{"Failed to repair bad.pck: Network"}, rep.errors)
}

func TestRun_FetchFailure(t *testing.T) {
	rep := &recorder{}
	res := Run(context.Background(), Config{
		Root: t.TempDir(),
		Source: SourceFunc(func(context.Context) ([]manifest.IntegrityFile, error) {
			return nil, errors.New("connection refused")
		}),
		Reporter: rep,
		Options:  DefaultOptions(),
	})

	assert.Equal(t, OutcomeFetchFailed, res.Outcome)
	require.ErrorIs(t, res.Err, ErrManifestFetch)
	assert.Equal(t, []State{Idle, Fetching, Finished}, res.Trace)
	assert.Len(t, rep.errors, 1)
}

func TestRun_MissingRoot(t *testing.T) {
	rep := &recorder{}
	res := Run(context.Background(), Config{Source: staticSource(), Reporter: rep, Options: DefaultOptions()})

	assert.Equal(t, OutcomeConfigMissing, res.Outcome)
	require.ErrorIs(t, res.Err, ErrConfigMissing)
	assert.Equal(t, []string{"You didn't specify the game path"}, rep.errors)
}

func TestRun_InvalidThreads(t *testing.T) {
	opts := DefaultOptions()
	opts.RepairThreads = 0
	res := Run(context.Background(), Config{Root: t.TempDir(), Source: staticSource(), Options: opts})

	assert.Equal(t, OutcomeInvalidConfig, res.Outcome)
	require.ErrorIs(t, res.Err, ErrInvalidConfig)
}

func TestRun_InterruptedSkipsRepair(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	src := SourceFunc(func(context.Context) ([]manifest.IntegrityFile, error) {
		cancel()
		return []manifest.IntegrityFile{md5Entry(t, "x", []byte("x"), "")}, nil
	})

	res := Run(ctx, Config{Root: root, Source: src, Options: DefaultOptions()})
	assert.True(t, res.Interrupted)
	assert.NotContains(t, res.Trace, Repairing)
	require.ErrorIs(t, res.Err, context.Canceled)
}

func TestStateAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "Done", Finished.String())
	assert.Equal(t, "Collecting", Collecting.String())
	assert.Equal(t, "Unknown", State(42).String())
	assert.Equal(t, "FetchFailed", OutcomeFetchFailed.String())
	assert.Equal(t, "NothingToDo", OutcomeNothingToDo.String())
}
