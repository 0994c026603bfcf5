package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// promptKey reads a key from the command's input. A terminal does not echo it.
func promptKey(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Key: ")

	var (
		key string
		err error
	)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		var b []byte

		b, err = term.ReadPassword(int(f.Fd()))

		fmt.Fprintln(cmd.ErrOrStderr())

		key = string(b)
	} else {
		key, err = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if errors.Is(err, io.EOF) && key != "" {
			err = nil
		}
	}

	if err != nil {
		return "", fmt.Errorf("reading key: %w", err)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("reading key: no key entered")
	}

	return key, nil
}
