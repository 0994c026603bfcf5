// Package config holds the settings of a chiffre run, gathered from flags, the
// environment and an optional configuration file.
package config

import (
	"errors"
	"fmt"

	"github.com/idelchi/gogen/pkg/validator"
)

// Config is the resolved configuration of one command invocation.
type Config struct {
	// Show prints the configuration and exits.
	Show bool `mapstructure:"show" yaml:"show"`

	// Quiet limits logging to warnings and errors.
	Quiet bool `mapstructure:"quiet" yaml:"quiet"`

	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`

	// Stats prints a summary after the run.
	Stats bool `mapstructure:"stats" yaml:"stats"`

	// DryRun prints what would be done without writing anything.
	DryRun bool `mapstructure:"dry-run" yaml:"dry-run"`

	// Parallel bounds the number of files processed at once.
	Parallel int `label:"--parallel" mapstructure:"parallel" validate:"min=1" yaml:"parallel"`

	// Key is an encoded key given on the command line or in the environment.
	Key string `label:"--key" mapstructure:"key" validate:"exclusive=--key-prompt" yaml:"key"`

	// KeyFile overrides the location of the key file.
	KeyFile string `mapstructure:"key-file" yaml:"key-file"`

	// KeyPrompt reads the key from the terminal.
	KeyPrompt bool `label:"--key-prompt" mapstructure:"key-prompt" yaml:"key-prompt"`

	// EncryptSuffix is appended to files encrypted in the default format.
	EncryptSuffix string `label:"--encrypt-ext" mapstructure:"encrypt-ext" validate:"suffix,differs=--sealed-ext" yaml:"encrypt-ext"` //nolint:lll

	// SealedSuffix is appended to files encrypted in the sealed format.
	SealedSuffix string `label:"--sealed-ext" mapstructure:"sealed-ext" validate:"suffix" yaml:"sealed-ext"`

	// Sealed selects the authenticated chunked format.
	Sealed bool `mapstructure:"sealed" yaml:"sealed"`

	// Recursive descends into subdirectories instead of skipping them.
	Recursive bool `mapstructure:"recursive" yaml:"recursive"`

	// PreserveTimestamps copies modification times onto outputs.
	PreserveTimestamps bool `mapstructure:"preserve-timestamps" yaml:"preserve-timestamps"`

	// Exclude lists glob patterns of entries to leave out.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`

	// ExcludeFrom names a JSONC file with more exclude patterns.
	ExcludeFrom string `mapstructure:"exclude-from" yaml:"exclude-from"`

	// Keep retains ciphertexts after decryption.
	Keep bool `mapstructure:"keep" yaml:"keep"`

	// Source is the file or directory to encrypt.
	Source string `mapstructure:"-" yaml:"source,omitempty"`

	// Destination is the backup directory when encrypting, or what to decrypt.
	Destination string `mapstructure:"-" yaml:"destination,omitempty"`
}

// Validate checks the configuration against its struct tags.
// Every offending field is reported, each wrapping validator.ErrValidation.
func (c *Config) Validate() error {
	v := validator.NewValidator()

	if err := register(v); err != nil {
		return err
	}

	if errs := v.Validate(c); len(errs) > 0 {
		return fmt.Errorf("validating configuration: %w", errors.Join(errs...))
	}

	return nil
}

// Redacted returns a copy of c that is safe to print.
func (c Config) Redacted() Config {
	if c.Key != "" {
		c.Key = "<redacted>"
	}

	return c
}
