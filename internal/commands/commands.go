package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/keys"
)

// NewGenerateCommand creates a command that prints or stores a fresh key.
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate a new encryption key",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := keys.Generate(nil)
			if err != nil {
				return fmt.Errorf("generating key: %w", err)
			}

			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), key.Encode())

				return nil
			}

			if _, err := os.Stat(output); !errors.Is(err, os.ErrNotExist) {
				return errs.Wrap(errs.ErrPath, fmt.Errorf("refusing to replace %q", output))
			}

			return keys.WriteFile(output, key)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write the key to this file instead of printing it")

	return cmd
}
