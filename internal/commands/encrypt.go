package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/chiffre/internal/config"
	"github.com/idelchi/chiffre/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] SOURCE [DESTINATION]",
		Aliases: []string{"enc"},
		Short:   "Encrypt a file or the files of a directory",
		Long: `Encrypts SOURCE. A directory is backed up into DESTINATION, which defaults to
SOURCE_chiffre next to it; a single file is encrypted next to itself or into DESTINATION.
Unless a key is given, a new key is generated and written before any file is encrypted.`,
		Args: cobra.RangeArgs(1, 2), //nolint:mnd
		PreRunE: preRun(cfg, func(args []string) {
			cfg.Source = args[0]

			if len(args) > 1 {
				cfg.Destination = args[1]
			}
		}),
		RunE: run(cfg, logic.Encrypt),
	}

	cmd.Flags().Bool("sealed", false, "Use the authenticated, chunked format")

	return cmd
}
