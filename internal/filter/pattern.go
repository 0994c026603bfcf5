package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// compile converts a glob into an anchored regexp with find -path semantics:
// * and ? also match /, [...] is a character class ([!...] negates), \ escapes.
func compile(pattern string) (*regexp.Regexp, error) {
	var buf strings.Builder

	buf.WriteString("^")

	pos := 0
	for pos < len(pattern) {
		switch pattern[pos] {
		case '*':
			buf.WriteString(".*")

			pos++
		case '?':
			buf.WriteString(".")

			pos++
		case '[':
			end, err := findClosingBracket(pattern, pos)
			if err != nil {
				return nil, err
			}

			class := pattern[pos : end+1]
			if len(class) > 2 && class[1] == '!' {
				class = "[^" + class[2:]
			}

			buf.WriteString(class)

			pos = end + 1
		case '\\':
			if pos+1 >= len(pattern) {
				return nil, fmt.Errorf("trailing backslash in pattern %q", pattern)
			}

			buf.WriteString(regexp.QuoteMeta(pattern[pos+1 : pos+2]))

			pos += 2
		default:
			buf.WriteString(regexp.QuoteMeta(pattern[pos : pos+1]))

			pos++
		}
	}

	buf.WriteString("$")

	re, err := regexp.Compile(buf.String())
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}

	return re, nil
}

// findClosingBracket returns the index of the ] closing the class opened at pos.
func findClosingBracket(pattern string, pos int) (int, error) {
	idx := pos + 1

	if idx < len(pattern) && pattern[idx] == '!' {
		idx++
	}

	// A leading ] is literal.
	if idx < len(pattern) && pattern[idx] == ']' {
		idx++
	}

	for ; idx < len(pattern); idx++ {
		if pattern[idx] == ']' {
			return idx, nil
		}
	}

	return 0, fmt.Errorf("unclosed character class in pattern %q", pattern)
}
