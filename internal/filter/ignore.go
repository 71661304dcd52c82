package filter

import "strings"

// Ignore is a list of case-insensitive substrings. A path containing any of
// them is skipped entirely by verification and repair.
type Ignore struct {
	needles []string
}

// NewIgnore builds an Ignore from raw patterns. Patterns are trimmed and
// lowercased; empty patterns are dropped.
func NewIgnore(patterns ...string) *Ignore {
	ig := &Ignore{}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			ig.needles = append(ig.needles, p)
		}
	}
	return ig
}

// ParseIgnoreList splits a comma-separated --ignore value.
func ParseIgnoreList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, ",")
}

// Empty reports whether no patterns are configured.
func (ig *Ignore) Empty() bool {
	return ig == nil || len(ig.needles) == 0
}

// Patterns returns the normalized patterns.
func (ig *Ignore) Patterns() []string {
	if ig == nil {
		return nil
	}
	return append([]string(nil), ig.needles...)
}

// Match reports whether path should be ignored.
func (ig *Ignore) Match(path string) bool {
	if ig.Empty() {
		return false
	}
	lower := strings.ToLower(path)
	for _, n := range ig.needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
