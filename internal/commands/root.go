package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/chiffre/internal/config"
	"github.com/idelchi/chiffre/internal/logic"
)

// NewRootCommand creates the root command with common configuration.
// Flags declared here apply to every subcommand and can also be set through
// CHIFFRE_* environment variables or a configuration file.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "chiffre [flags] command [flags]",
		Short: "File backup encryption utility",
		Long: `Encrypts a file or the files of a directory into a backup with a generated key,
and restores them again. The key is written next to the backup as cle.key.`,
		Version:           version,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	flags := root.PersistentFlags()

	flags.BoolP("show", "s", false, "Show the configuration and exit")
	flags.String("config", "", "Path to a configuration file")
	flags.IntP("parallel", "j", 1, "Number of files processed at once")
	flags.BoolP("quiet", "q", false, "Only log warnings and errors")
	flags.BoolP("verbose", "v", false, "Log every decision, including skipped entries")
	flags.Bool("stats", false, "Print statistics after the run")
	flags.BoolP("dry-run", "n", false, "Print what would be done without writing anything")

	flags.StringP("key", "k", "", "Encryption key, base64-encoded (no key file is written)")
	flags.StringP("key-file", "f", "", "Path of the key file, defaults to cle.key next to the backup")
	flags.Bool("key-prompt", false, "Read the key from the terminal")

	flags.String("encrypt-ext", logic.DefaultSuffixes.Encrypt, "Suffix of encrypted files")
	flags.String("sealed-ext", logic.DefaultSuffixes.Sealed, "Suffix of files in the sealed format")

	flags.BoolP("recursive", "r", false, "Descend into subdirectories instead of skipping them")
	flags.StringSliceP("exclude", "e", nil, "Glob pattern of entries to leave out (repeatable)")
	flags.String("exclude-from", "", "JSONC file with an array of exclude patterns")
	flags.Bool("preserve-timestamps", false, "Copy modification times onto outputs")

	root.AddCommand(
		NewEncryptCommand(cfg),
		NewDecryptCommand(cfg),
		NewGenerateCommand(),
	)

	return root
}
