package logic

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/idelchi/chiffre/internal/encryption"
	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/fileutil"
)

// job is one file to transform. Jobs share nothing but the key.
type job struct {
	input  string
	output string
	mode   encryption.CipherMode
	delete bool

	// err refuses the job; it is reported as the job's failure without touching the disk.
	err error
}

// plan is the outcome of scanning a directory before anything is written.
type plan struct {
	jobs    []job
	dirs    []string
	skipped int
}

// scanner classifies the entries below root.
type scanner struct {
	runner *Runner
	root   string

	// ignore holds absolute paths that are never treated as entries: the key file and a nested backup.
	ignore map[string]string

	// classify turns a regular file into a job, or reports false to ignore it.
	classify func(path, rel string) (job, bool)

	// mirror returns the output directory for a source subdirectory, or "" when none is needed.
	mirror func(rel string) string
}

func (s *scanner) scan() (plan, error) {
	var p plan

	log := s.runner.logger()

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if path == s.root {
			if err != nil {
				return errs.Wrap(errs.ErrIO, fmt.Errorf("reading %q: %w", path, err))
			}

			return nil
		}

		if err != nil {
			log.Warn("skipping unreadable entry", "path", path, "error", err)

			p.skipped++

			if d != nil && d.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return errs.Wrap(errs.ErrPath, err)
		}

		if reason, ok := s.ignored(path); ok {
			log.Debug("skipping "+reason, "path", path)

			p.skipped++

			return skipEntry(d)
		}

		if fileutil.IsTemp(d.Name()) {
			log.Debug("skipping leftover temporary file", "path", path)

			p.skipped++

			return nil
		}

		if s.runner.Filter.Excluded(rel, d.IsDir()) {
			log.Debug("skipping excluded entry", "path", path)

			p.skipped++

			return skipEntry(d)
		}

		switch {
		case d.IsDir():
			if !s.runner.Recursive {
				log.Warn("skipping subdirectory, use --recursive to include it", "path", path)

				p.skipped++

				return fs.SkipDir
			}

			if dir := s.mirror(rel); dir != "" {
				p.dirs = append(p.dirs, dir)
			}
		case d.Type().IsRegular():
			if j, ok := s.classify(path, rel); ok {
				p.jobs = append(p.jobs, j)
			}
		default:
			log.Warn("skipping special file", "path", path, "type", d.Type().String())

			p.skipped++
		}

		return nil
	})
	if err != nil {
		return plan{}, err
	}

	return p, nil
}

// ignored reports whether path is the key file or the backup directory.
func (s *scanner) ignored(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	reason, ok := s.ignore[abs]

	return reason, ok
}

func skipEntry(d fs.DirEntry) error {
	if d.IsDir() {
		return fs.SkipDir
	}

	return nil
}

// absolute returns path made absolute, or path itself when that fails.
func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return abs
}

// statSource returns information about a path the user named, mapping absence to ErrPath.
func statSource(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrPath, fmt.Errorf("%q does not exist", path))
		}

		return nil, errs.Wrap(errs.ErrPath, fmt.Errorf("stat %q: %w", path, err))
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil, errs.Wrap(errs.ErrPath, fmt.Errorf("%q is neither a regular file nor a directory", path))
	}

	return info, nil
}

// guardKey refuses j when any of targets is the key file at keyPath.
func guardKey(j job, keyPath string, targets ...string) job {
	if keyPath == "" {
		return j
	}

	key := absolute(keyPath)

	for _, target := range targets {
		if absolute(target) == key {
			j.err = errs.Wrap(errs.ErrPath, fmt.Errorf("%q would replace the key file %q", j.input, keyPath))

			return j
		}
	}

	return j
}

// restoredPath is where decrypting the ciphertext of j lands.
func restoredPath(j job) string {
	return filepath.Join(filepath.Dir(j.output), filepath.Base(j.input))
}

func logAttrs(j job) []any {
	return []any{slog.String("input", j.input), slog.String("output", j.output)}
}
