// Package filter decides which entries of a backup source are left out.
//
// A pattern without a slash is matched against the entry name alone, so "*.tmp" drops
// temporary files at any depth. A pattern containing a slash is matched against the
// slash-separated path relative to the source root with find -path semantics, where
// * also crosses directories. A trailing slash restricts a pattern to directories.
package filter

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Filter holds compiled exclude patterns. The zero value and nil exclude nothing.
type Filter struct {
	rules []rule
}

type rule struct {
	pattern  string
	re       *regexp.Regexp
	dirOnly  bool
	fullPath bool
}

// New compiles patterns into a Filter. Empty patterns are ignored.
func New(patterns []string) (*Filter, error) {
	filter := &Filter{}

	for _, p := range patterns {
		p = strings.TrimPrefix(strings.TrimSpace(p), "./")
		if p == "" {
			continue
		}

		r := rule{pattern: p}

		if strings.HasSuffix(p, "/") {
			r.dirOnly = true
			p = strings.TrimRight(p, "/")
		}

		r.fullPath = strings.Contains(p, "/")

		re, err := compile(p)
		if err != nil {
			return nil, err
		}

		r.re = re
		filter.rules = append(filter.rules, r)
	}

	return filter, nil
}

// Load compiles patterns together with the patterns listed in the JSONC file from, if set.
func Load(patterns []string, from string) (*Filter, error) {
	all := append([]string{}, patterns...)

	if from != "" {
		loaded, err := loadPatterns(from)
		if err != nil {
			return nil, err
		}

		all = append(all, loaded...)
	}

	filter, err := New(all)
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}

	return filter, nil
}

// Excluded reports whether the entry at rel, relative to the source root, is left out.
func (f *Filter) Excluded(rel string, isDir bool) bool {
	if f == nil {
		return false
	}

	rel = filepath.ToSlash(filepath.Clean(rel))
	name := path.Base(rel)

	for _, r := range f.rules {
		if r.dirOnly && !isDir {
			continue
		}

		subject := name
		if r.fullPath {
			subject = rel
		}

		if r.re.MatchString(subject) {
			return true
		}
	}

	return false
}

// Patterns returns the normalized patterns in the order they were given.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}

	patterns := make([]string, len(f.rules))
	for i, r := range f.rules {
		patterns[i] = r.pattern
	}

	return patterns
}
