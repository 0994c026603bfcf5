package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/idelchi/chiffre/internal/errs"
)

// loadPatterns reads an exclude file: a JSON array of patterns that may carry comments
// and trailing commas.
func loadPatterns(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from user-supplied config
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, errs.Wrap(errs.ErrPath, fmt.Errorf("exclude file %q does not exist", path))
	case err != nil:
		return nil, errs.Wrap(errs.ErrIO, fmt.Errorf("reading exclude file %q: %w", path, err))
	}

	var patterns []string
	if err := json.Unmarshal(jsonc.ToJSONInPlace(data), &patterns); err != nil {
		return nil, errs.Wrap(errs.ErrPath, fmt.Errorf("exclude file %q is not an array of patterns: %w", path, err))
	}

	return patterns, nil
}
