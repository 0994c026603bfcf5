// Command chiffre encrypts file backups with a generated key.
package main

import (
	"os"

	"github.com/idelchi/chiffre/internal/commands"
	"github.com/idelchi/chiffre/internal/config"
)

// version is set at build time.
var version = "unknown"

func main() {
	cfg := &config.Config{}

	if err := commands.NewRootCommand(cfg, version).Execute(); err != nil {
		os.Exit(1)
	}
}
