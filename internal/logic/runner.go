package logic

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/idelchi/chiffre/internal/encryption"
	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/filter"
	"github.com/idelchi/chiffre/internal/keys"
)

// backupDirPerm is the mode of directories chiffre creates.
const backupDirPerm os.FileMode = 0o750

// Suffixes name the two ciphertext formats.
type Suffixes struct {
	Encrypt string
	Sealed  string
}

// DefaultSuffixes are used when a Runner has none configured.
//
//nolint:gochecknoglobals
var DefaultSuffixes = Suffixes{Encrypt: ".encrypted", Sealed: ".sealed"}

// EncryptRequest describes one encryption run.
type EncryptRequest struct {
	// Source is the file or directory to back up.
	Source string

	// Backup is the destination directory. Optional.
	Backup string

	// KeyPath overrides where a generated key is written. Optional.
	KeyPath string

	// Key is a caller-supplied encoded key. When set no key file is written.
	Key string
}

// DecryptRequest describes one decryption run.
type DecryptRequest struct {
	// Backup is the directory of ciphertexts, or a single ciphertext file.
	Backup string

	// KeyPath overrides where the key is read from. Optional.
	KeyPath string

	// Key is a caller-supplied encoded key. Optional.
	Key string
}

// Runner encrypts and decrypts files and directories.
type Runner struct {
	Keys   *keys.Provider
	Filter *filter.Filter
	Logger *slog.Logger

	// Out receives the dry-run plan.
	Out io.Writer

	Suffixes           Suffixes
	Sealed             bool
	PreserveTimestamps bool
	Recursive          bool
	Keep               bool
	DryRun             bool
	Parallel           int
}

// NewRunner returns a sequential Runner with default suffixes, writing its plan to stdout.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		Keys:     keys.NewProvider(),
		Logger:   logger,
		Out:      os.Stdout,
		Suffixes: DefaultSuffixes,
		Parallel: 1,
	}
}

// Encrypt backs up req.Source.
//
// A directory is encrypted entry by entry into req.Backup, which defaults to a sibling
// "<source>_chiffre" directory; the key file is written next to the backup directory.
// A single file is encrypted next to itself, or into req.Backup when given.
// The key file is always written before any ciphertext.
func (r *Runner) Encrypt(req EncryptRequest) (Summary, error) {
	start := time.Now()

	source := filepath.Clean(req.Source)

	info, err := statSource(source)
	if err != nil {
		return Summary{}, err
	}

	mode, suffix := r.encryptFormat()

	var (
		anchor string
		p      plan
		single = !info.IsDir()
	)

	if single {
		output := source + suffix
		if req.Backup != "" {
			output = CipherPath(filepath.Clean(req.Backup), filepath.Base(source), suffix)
			p.dirs = []string{filepath.Clean(req.Backup)}
		}

		anchor = output

		j := job{input: source, output: output, mode: mode}
		if req.Key == "" {
			j = guardKey(j, r.keyPath(anchor, req.KeyPath), source, output, restoredPath(j))
		}

		if j.err != nil {
			return Summary{}, j.err
		}

		p.jobs = []job{j}
	} else {
		backup := req.Backup
		if backup == "" {
			backup = DefaultBackupDir(source)
		}

		backup = filepath.Clean(backup)
		anchor = backup

		keyPath := r.keyPath(anchor, req.KeyPath)

		s := &scanner{
			runner: r,
			root:   source,
			ignore: map[string]string{
				absolute(backup):  "backup directory",
				absolute(keyPath): "key file",
			},
			classify: func(path, rel string) (job, bool) {
				j := job{input: path, output: CipherPath(backup, rel, suffix), mode: mode}
				if req.Key == "" {
					j = guardKey(j, keyPath, j.output, restoredPath(j))
				}

				return j, true
			},
			mirror: func(rel string) string {
				return filepath.Join(backup, rel)
			},
		}

		if p, err = s.scan(); err != nil {
			return Summary{}, err
		}

		p.dirs = append([]string{backup}, p.dirs...)
	}

	if r.DryRun {
		return r.dryRun("encrypt", p, start), nil
	}

	for _, dir := range p.dirs {
		if err := os.MkdirAll(dir, backupDirPerm); err != nil {
			return Summary{}, errs.Wrap(errs.ErrIO, fmt.Errorf("creating backup directory: %w", err))
		}
	}

	resolved, err := r.provider().Resolve(anchor, req.KeyPath, req.Key)
	if err != nil {
		return Summary{}, err
	}

	switch {
	case resolved.Replaced:
		r.logger().Warn("replacing existing key file", "path", resolved.Path)
	case resolved.Persisted:
		r.logger().Info("key file written", "path", resolved.Path)
	}

	return r.execute("encrypt", p, resolved.Key, single, start)
}

// Decrypt restores the ciphertexts at req.Backup and deletes them once their plaintext is committed.
//
// In a directory every entry carrying the CBC or sealed suffix is decrypted to its
// suffix-stripped name; the key file and other names are left alone.
func (r *Runner) Decrypt(req DecryptRequest) (Summary, error) {
	start := time.Now()

	backup := filepath.Clean(req.Backup)

	info, err := statSource(backup)
	if err != nil {
		return Summary{}, err
	}

	key, keyPath, err := r.provider().Load(backup, req.KeyPath, req.Key)
	if err != nil {
		return Summary{}, err
	}

	r.logger().Debug("key loaded", "path", keyPath)

	var (
		p      plan
		single = !info.IsDir()
	)

	if single {
		if keyPath != "" && absolute(backup) == absolute(keyPath) {
			return Summary{}, errs.Wrap(errs.ErrPath, fmt.Errorf("%q is the key file", backup))
		}

		j, ok := r.decryptJob(backup)
		if !ok {
			return Summary{}, errs.Wrap(errs.ErrPath,
				fmt.Errorf("%q does not end in %q or %q", backup, r.suffixes().Encrypt, r.suffixes().Sealed))
		}

		if j = guardKey(j, keyPath, j.output); j.err != nil {
			return Summary{}, j.err
		}

		p.jobs = []job{j}
	} else {
		ignore := map[string]string{}
		if keyPath != "" {
			ignore[absolute(keyPath)] = "key file"
		}

		s := &scanner{
			runner: r,
			root:   backup,
			ignore: ignore,
			classify: func(path, _ string) (job, bool) {
				if filepath.Base(path) == r.provider().FileName {
					r.logger().Debug("skipping key file", "path", path)

					return job{}, false
				}

				j, ok := r.decryptJob(path)
				if !ok {
					r.logger().Debug("ignoring file without a ciphertext suffix", "path", path)

					return job{}, false
				}

				return guardKey(j, keyPath, j.output), true
			},
			mirror: func(string) string { return "" },
		}

		if p, err = s.scan(); err != nil {
			return Summary{}, err
		}

		if len(p.jobs) == 0 {
			r.logger().Info("nothing to decrypt", "path", backup)
		}
	}

	if r.DryRun {
		return r.dryRun("decrypt", p, start), nil
	}

	return r.execute("decrypt", p, key, single, start)
}

// decryptJob picks the format of path from its suffix.
func (r *Runner) decryptJob(path string) (job, bool) {
	suffixes := r.suffixes()

	if output, ok := PlainPath(path, suffixes.Sealed); ok {
		return job{input: path, output: output, mode: encryption.ModeSealed, delete: !r.Keep}, true
	}

	if output, ok := PlainPath(path, suffixes.Encrypt); ok {
		return job{input: path, output: output, mode: encryption.ModeCBC, delete: !r.Keep}, true
	}

	return job{}, false
}

func (r *Runner) encryptFormat() (encryption.CipherMode, string) {
	if r.Sealed {
		return encryption.ModeSealed, r.suffixes().Sealed
	}

	return encryption.ModeCBC, r.suffixes().Encrypt
}

// execute runs every job of p with at most r.Parallel in flight. In directory mode every
// job is attempted and failures are joined; a single job's error is returned as is.
func (r *Runner) execute(op string, p plan, key keys.Key, single bool, start time.Time) (Summary, error) {
	log := r.logger()
	results := make(chan Result, len(p.jobs))

	group := errgroup.Group{}
	group.SetLimit(max(1, r.Parallel))

	summary := Summary{Skipped: p.skipped}
	done := make(chan struct{})

	var failures []error

	go func() {
		defer close(done)

		for result := range results {
			summary.add(result)

			if result.Err != nil {
				log.Error(op+" failed", "input", result.Input, "error", result.Err)

				failures = append(failures, result.Err)

				continue
			}

			log.Info(op+"ed", logAttrs(job{input: result.Input, output: result.Output})...)

			if result.Deleted {
				log.Debug("deleted ciphertext", "path", result.Input)
			}
		}
	}()

	for _, j := range p.jobs {
		group.Go(func() error {
			results <- r.run(op, j, key)

			return nil
		})
	}

	_ = group.Wait()

	close(results)

	<-done

	summary.Duration = time.Since(start)

	switch {
	case len(failures) == 0:
		return summary, nil
	case single:
		return summary, failures[0]
	default:
		return summary, errors.Join(append(
			[]error{fmt.Errorf("%d of %d file(s) failed", len(failures), len(p.jobs))}, failures...)...)
	}
}

// run transforms one file. A ciphertext is deleted only after its plaintext was committed.
func (r *Runner) run(op string, j job, key keys.Key) Result {
	codec := encryption.NewCodec(j.mode)
	codec.PreserveTimestamps = r.PreserveTimestamps

	result := Result{Input: j.input, Output: j.output}

	if j.err != nil {
		result.Err = j.err

		return result
	}

	transform := codec.EncryptFile
	if op == "decrypt" {
		transform = codec.DecryptFile
	}

	size, err := transform(j.input, j.output, key)
	if err != nil {
		result.Err = fmt.Errorf("%sing %q: %w", op, j.input, err)

		return result
	}

	result.Size = size

	if j.delete {
		if err := os.Remove(j.input); err != nil {
			result.Err = errs.Wrap(errs.ErrIO, fmt.Errorf("deleting %q: %w", j.input, err))

			return result
		}

		result.Deleted = true
	}

	return result
}

func (r *Runner) dryRun(op string, p plan, start time.Time) Summary {
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	summary := Summary{Skipped: p.skipped}

	for _, j := range p.jobs {
		if j.err != nil {
			r.logger().Warn("refusing "+op, "input", j.input, "error", j.err)

			summary.Errored++

			continue
		}

		fmt.Fprintf(out, "%s %q -> %q\n", op, j.input, j.output)

		if info, err := os.Stat(j.input); err == nil {
			summary.Size += info.Size()
		}

		summary.Processed++
		summary.Results = append(summary.Results, Result{Input: j.input, Output: j.output})
	}

	summary.Duration = time.Since(start)

	return summary
}

// keyPath returns where a generated key for anchor is written.
func (r *Runner) keyPath(anchor, explicit string) string {
	if explicit != "" {
		return explicit
	}

	return r.provider().DefaultPath(anchor)
}

func (r *Runner) provider() *keys.Provider {
	if r.Keys == nil {
		r.Keys = keys.NewProvider()
	}

	return r.Keys
}

func (r *Runner) suffixes() Suffixes {
	s := r.Suffixes
	if s.Encrypt == "" {
		s.Encrypt = DefaultSuffixes.Encrypt
	}

	if s.Sealed == "" {
		s.Sealed = DefaultSuffixes.Sealed
	}

	return s
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return r.Logger
}
