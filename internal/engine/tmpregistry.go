package engine

import (
	"os"
	"sort"
	"sync"
)

// partFiles tracks .part downloads that are still open so an interrupted
// run can remove them before exiting.
var partFiles = &partRegistry{paths: make(map[string]struct{})}

type partRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// RegisterTmp records an in-flight download.
func RegisterTmp(path string) {
	partFiles.mu.Lock()
	partFiles.paths[path] = struct{}{}
	partFiles.mu.Unlock()
}

// DeregisterTmp forgets a download that was committed or already removed.
func DeregisterTmp(path string) {
	partFiles.mu.Lock()
	delete(partFiles.paths, path)
	partFiles.mu.Unlock()
}

// PendingTmpFiles lists the registered downloads in lexical order.
func PendingTmpFiles() []string {
	partFiles.mu.Lock()
	defer partFiles.mu.Unlock()
	out := make([]string, 0, len(partFiles.paths))
	for p := range partFiles.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// CleanupTmpFiles removes every registered download and returns how many
// files were actually deleted.
func CleanupTmpFiles() int {
	paths := PendingTmpFiles()
	partFiles.mu.Lock()
	partFiles.paths = make(map[string]struct{})
	partFiles.mu.Unlock()

	removed := 0
	for _, p := range paths {
		if err := os.Remove(p); err == nil {
			removed++
		}
	}
	return removed
}
