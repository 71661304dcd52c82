package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// pkgVersionLine is one JSON line of a launcher pkg_version file.
type pkgVersionLine struct {
	RemoteName string `json:"remoteName"`
	MD5        string `json:"md5"`
	SHA1       string `json:"sha1"`
	SHA256     string `json:"sha256"`
	BLAKE3     string `json:"blake3"`
	XXH64      string `json:"xxh64"`
	FileSize   uint64 `json:"fileSize"`
}

func (l pkgVersionLine) checksum() (Checksum, error) {
	candidates := []struct {
		sum  string
		algo Algorithm
	}{
		{l.MD5, MD5},
		{l.SHA1, SHA1},
		{l.SHA256, SHA256},
		{l.BLAKE3, BLAKE3},
		{l.XXH64, XXH64},
	}
	for _, c := range candidates {
		if c.sum != "" {
			return ParseChecksum(c.algo, c.sum)
		}
	}
	return Checksum{}, fmt.Errorf("%s: no checksum", l.RemoteName)
}

// ParsePkgVersion reads a pkg_version document. Remote URLs are built by
// joining baseURL and each entry's remote name.
func ParsePkgVersion(r io.Reader, baseURL string) ([]IntegrityFile, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	var files []IntegrityFile
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var line pkgVersionLine
		if err := json.Unmarshal([]byte(text), &line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		sum, err := line.checksum()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		remoteName := NormalizePath(line.RemoteName)
		files = append(files, IntegrityFile{
			Path:      remoteName,
			Size:      line.FileSize,
			Checksum:  sum,
			RemoteURL: baseURL + "/" + remoteName,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pkg_version: %w", err)
	}
	return files, nil
}
