package engine

import "github.com/bamsammich/agcli/internal/manifest"

// Partition splits files into at most n batches of roughly equal total size.
// Files are taken greedily in manifest order: a batch is closed once its
// size reaches the per-batch average, and the last batch takes whatever is
// left. Every file lands in exactly one batch and each batch keeps manifest
// order. Empty input yields no batches.
func Partition(files []manifest.IntegrityFile, n int) [][]manifest.IntegrityFile {
	if len(files) == 0 {
		return nil
	}
	n = clampThreads(n, len(files))

	total := manifest.TotalSize(files)
	// Rounding the target up keeps the remainder batch within the average.
	avg := total / uint64(n)
	if total%uint64(n) != 0 {
		avg++
	}

	batches := make([][]manifest.IntegrityFile, 0, n)
	start := 0
	for len(batches) < n-1 && start < len(files) {
		var size uint64
		end := start
		for end < len(files) && (end == start || size < avg) {
			size += files[end].Size
			end++
		}
		batches = append(batches, files[start:end:end])
		start = end
	}
	if start < len(files) {
		batches = append(batches, files[start:len(files):len(files)])
	}
	return batches
}

// clampThreads bounds a requested worker count to [1, items].
func clampThreads(requested, items int) int {
	if items <= 0 {
		return 0
	}
	return min(max(requested, 1), items)
}
