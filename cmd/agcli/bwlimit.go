package main

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

var errZeroBWLimit = errors.New("limit must be greater than zero")

// parseBWLimit parses a --bwlimit rate in bytes per second. A trailing "/s"
// is optional. Bare unit letters are binary (10M is 10 MiB/s) while unit
// names follow go-humanize (10MB is decimal, 10MiB binary).
func parseBWLimit(s string) (int64, error) {
	v := strings.TrimSpace(s)
	if lower := strings.ToLower(v); strings.HasSuffix(lower, "/s") {
		v = strings.TrimSpace(v[:len(v)-2])
	}
	if n := len(v); n > 1 && strings.ContainsRune("kKmMgGtT", rune(v[n-1])) &&
		!unicode.IsLetter(rune(v[n-2])) {
		v += "i"
	}

	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	switch {
	case n == 0:
		return 0, fmt.Errorf("%q: %w", s, errZeroBWLimit)
	case n > math.MaxInt64:
		return 0, fmt.Errorf("%q: limit too large", s)
	}
	return int64(n), nil
}
