// Package logging provides the tab-separated slog handler used by every chiffre command.
package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Handler is a slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
type Handler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	runID string
	attrs []slog.Attr
}

// NewHandler returns a Handler writing records at or above level to w.
func NewHandler(w io.Writer, level slog.Leveler, runID string) *Handler {
	return &Handler{
		w:     w,
		mu:    &sync.Mutex{},
		level: level,
		runID: runID,
	}
}

// Enabled reports whether records at level are written.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes r as one line. Concurrent jobs never interleave within a line.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")

	fmt.Fprintf(&buf, "%s\t%s\t%s\t%s", ts, r.Level.String(), h.runID, r.Message)

	for _, a := range h.attrs {
		writeAttr(&buf, a)
	}

	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// WithAttrs returns a Handler that appends attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)

	return &clone
}

// WithGroup is a no-op; chiffre does not group attributes.
func (h *Handler) WithGroup(string) slog.Handler { return h }

func writeAttr(buf *bytes.Buffer, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}

	fmt.Fprintf(buf, "\t%s=%v", a.Key, a.Value.Resolve())
}

// Level maps the quiet and verbose switches onto a slog level.
// Quiet wins when both are set.
func Level(quiet, verbose bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New creates a logger with a fresh run ID writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, level, NewRunID()))
}

// NewRunID returns a short identifier that ties together the lines of one invocation.
func NewRunID() string {
	return uuid.NewString()[:8]
}
