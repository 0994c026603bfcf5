// Package commands provides the command-line interface for the chiffre tool.
//
// It implements commands for:
//   - encryption
//   - decryption
//   - key generation
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/chiffre/internal/config"
	"github.com/idelchi/chiffre/internal/logging"
)

// envPrefix prefixes the environment variables that mirror the flags.
const envPrefix = "CHIFFRE"

// preRun returns a PreRunE handler that loads flags, environment and configuration file
// into cfg, stores the positional args with assign and validates the result.
func preRun(cfg *config.Config, assign func(args []string)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := load(cmd, cfg); err != nil {
			return err
		}

		assign(args)

		if err := cfg.Validate(); err != nil {
			return err
		}

		if cfg.KeyPrompt && !cfg.Show {
			key, err := promptKey(cmd)
			if err != nil {
				return err
			}

			cfg.Key = key
		}

		return nil
	}
}

// run adapts a logic entry point to a cobra RunE, handling --show.
func run(cfg *config.Config, fn func(*config.Config, *slog.Logger, io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if cfg.Show {
			return show(cmd.OutOrStdout(), cfg)
		}

		logger := logging.New(cmd.ErrOrStderr(), logging.Level(cfg.Quiet, cfg.Verbose))

		return fn(cfg, logger, cmd.OutOrStdout())
	}
}

// load merges flags, CHIFFRE_* variables and the optional configuration file into cfg.
// Flags set on the command line win over the environment, which wins over the file.
func load(cmd *cobra.Command, cfg *config.Config) error {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading configuration file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	return nil
}

func show(w io.Writer, cfg *config.Config) error {
	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("rendering configuration: %w", err)
	}

	_, err = w.Write(out)

	return err
}
