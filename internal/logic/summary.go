package logic

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// Result represents the outcome of processing a single file.
type Result struct {
	// Input file path
	Input string

	// Output file path
	Output string

	// Output file size in bytes
	Size int64

	// Deleted is true when the input was removed after a successful decryption.
	Deleted bool

	// Any error that occurred during processing
	Err error
}

// Summary aggregates the results of one run.
type Summary struct {
	Processed int
	Errored   int
	Skipped   int
	Deleted   int
	Size      int64
	Duration  time.Duration
	Results   []Result
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)

	if r.Deleted {
		s.Deleted++
	}

	if r.Err != nil {
		s.Errored++

		return
	}

	s.Processed++
	s.Size += r.Size
}

// Print writes the summary as a small table.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\nStats\n")
	fmt.Fprintf(w, "  Processed: %d\n", s.Processed)
	fmt.Fprintf(w, "  Skipped:   %d\n", s.Skipped)
	fmt.Fprintf(w, "  Deleted:   %d\n", s.Deleted)
	fmt.Fprintf(w, "  Errors:    %d\n", s.Errored)
	//nolint:gosec // Size is a sum of file sizes and never negative
	fmt.Fprintf(w, "  Size:      %s\n", humanize.IBytes(uint64(max(0, s.Size))))
	fmt.Fprintf(w, "  Duration:  %s\n", s.Duration.Round(time.Millisecond))
}
