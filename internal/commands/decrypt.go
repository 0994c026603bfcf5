package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/chiffre/internal/config"
	"github.com/idelchi/chiffre/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "decrypt [flags] DESTINATION",
		Aliases: []string{"dec"},
		Short:   "Restore a backup directory or a single encrypted file",
		Long: `Decrypts every encrypted file in DESTINATION, or DESTINATION itself when it is a file.
Each ciphertext is removed once its plaintext has been written, unless --keep is given.`,
		Args: cobra.ExactArgs(1),
		PreRunE: preRun(cfg, func(args []string) {
			cfg.Destination = args[0]
		}),
		RunE: run(cfg, logic.Decrypt),
	}

	cmd.Flags().Bool("keep", false, "Keep ciphertexts after decryption")

	return cmd
}
