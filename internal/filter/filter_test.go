package filter_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/filter"
)

// Case is a single entry checked against a group's patterns.
type Case struct {
	Path        string `yaml:"path"`
	Dir         bool   `yaml:"dir"`
	Excluded    bool   `yaml:"excluded"`
	Description string `yaml:"description,omitempty"`
}

// Group is a named set of patterns with the entries they should and should not exclude.
type Group struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Patterns    []string `yaml:"patterns"`
	Cases       []Case   `yaml:"cases"`
}

func loadGroups(t *testing.T) []Group {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "exclude.yml"))
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}

	var groups []Group
	if err := yaml.Unmarshal(data, &groups); err != nil {
		t.Fatalf("parsing golden file: %v", err)
	}

	if len(groups) == 0 {
		t.Fatal("golden file holds no groups")
	}

	return groups
}

func TestExcluded(t *testing.T) {
	t.Parallel()

	for _, g := range loadGroups(t) {
		t.Run(g.Name, func(t *testing.T) {
			t.Parallel()

			flt, err := filter.New(g.Patterns)
			if err != nil {
				t.Fatalf("New(%q) error = %v", g.Patterns, err)
			}

			for i, tc := range g.Cases {
				desc := tc.Description
				if desc == "" {
					desc = fmt.Sprintf("case_%d", i)
				}

				t.Run(desc, func(t *testing.T) {
					t.Parallel()

					if got := flt.Excluded(filepath.FromSlash(tc.Path), tc.Dir); got != tc.Excluded {
						t.Errorf("Excluded(%q, dir=%v) = %v, want %v", tc.Path, tc.Dir, got, tc.Excluded)
					}
				})
			}
		})
	}
}

func TestNilFilter(t *testing.T) {
	t.Parallel()

	var flt *filter.Filter

	if flt.Excluded("a", false) {
		t.Error("nil filter excluded an entry")
	}

	if len(flt.Patterns()) != 0 {
		t.Error("nil filter reports patterns")
	}
}

func TestNewInvalid(t *testing.T) {
	t.Parallel()

	for _, pattern := range []string{"[abc", `trailing\`} {
		if _, err := filter.New([]string{pattern}); err == nil {
			t.Errorf("New(%q) error = nil, want error", pattern)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.jsonc")

	content := `[
  // editor leftovers
  "*.swp",
  "cache/", /* trailing comma below */
]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	flt, err := filter.Load([]string{"*.tmp"}, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"*.tmp", "*.swp", "cache/"}

	got := flt.Patterns()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Patterns() = %q, want %q", got, want)
	}

	if !flt.Excluded("x/.a.swp", false) || !flt.Excluded("cache", true) {
		t.Error("patterns loaded from file are not applied")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	notArray := filepath.Join(dir, "bad.jsonc")
	if err := os.WriteFile(notArray, []byte(`{"exclude": "*.tmp"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	unreadable := filepath.Join(dir, "unreadable.jsonc")
	if err := os.Mkdir(unreadable, 0o750); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "missing", path: filepath.Join(dir, "missing.jsonc"), want: errs.ErrPath},
		{name: "not an array", path: notArray, want: errs.ErrPath},
		{name: "directory", path: unreadable, want: errs.ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := filter.Load(nil, tt.path); !errors.Is(err, tt.want) {
				t.Errorf("Load(%q) error = %v, want %v", tt.path, err, tt.want)
			}
		})
	}
}
