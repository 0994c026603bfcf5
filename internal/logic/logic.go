// Package logic implements the backup runs: deciding which files to encrypt or decrypt,
// where their outputs go, and when ciphertexts are deleted.
package logic

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/idelchi/chiffre/internal/config"
	"github.com/idelchi/chiffre/internal/filter"
)

// Encrypt runs the encryption described by cfg. The plan of a dry run and the
// statistics are written to out.
func Encrypt(cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	runner, err := newRunner(cfg, logger, out)
	if err != nil {
		return err
	}

	summary, err := runner.Encrypt(EncryptRequest{
		Source:  cfg.Source,
		Backup:  cfg.Destination,
		KeyPath: cfg.KeyFile,
		Key:     cfg.Key,
	})

	return finish(cfg, summary, err, out)
}

// Decrypt runs the decryption described by cfg.
func Decrypt(cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	runner, err := newRunner(cfg, logger, out)
	if err != nil {
		return err
	}

	summary, err := runner.Decrypt(DecryptRequest{
		Backup:  cfg.Destination,
		KeyPath: cfg.KeyFile,
		Key:     cfg.Key,
	})

	return finish(cfg, summary, err, out)
}

func newRunner(cfg *config.Config, logger *slog.Logger, out io.Writer) (*Runner, error) {
	flt, err := filter.Load(cfg.Exclude, cfg.ExcludeFrom)
	if err != nil {
		return nil, fmt.Errorf("loading exclude patterns: %w", err)
	}

	runner := NewRunner(logger)

	if patterns := flt.Patterns(); len(patterns) > 0 {
		runner.logger().Debug("excluding entries", "patterns", patterns)
	}

	runner.Filter = flt
	runner.Out = out
	runner.Suffixes = Suffixes{Encrypt: cfg.EncryptSuffix, Sealed: cfg.SealedSuffix}
	runner.Sealed = cfg.Sealed
	runner.PreserveTimestamps = cfg.PreserveTimestamps
	runner.Recursive = cfg.Recursive
	runner.Keep = cfg.Keep
	runner.DryRun = cfg.DryRun
	runner.Parallel = cfg.Parallel

	return runner, nil
}

func finish(cfg *config.Config, summary Summary, err error, out io.Writer) error {
	if cfg.Stats {
		summary.Print(out)
	}

	return err
}
