// Package logging configures the hook's logger.
//
// Everything goes to stderr (the hook's stdout must stay clean for the init
// framework). When stderr is not a terminal and the systemd journal socket
// is present, entries are mirrored to the journal with structured fields.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	"golang.org/x/term"
)

const syslogIdentifier = "etchook"

// New returns a logger writing to stderr at Info level, or Debug when
// verbose is set.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if !term.IsTerminal(int(os.Stderr.Fd())) && journal.Enabled() {
		h = &journalHandler{inner: h, level: level}
	}

	return slog.New(h)
}

// journalHandler mirrors records to the systemd journal in addition to the
// wrapped handler.
type journalHandler struct {
	inner slog.Handler
	level slog.Level
	attrs []slog.Attr
}

func (h *journalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *journalHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := map[string]string{
		"SYSLOG_IDENTIFIER": syslogIdentifier,
	}
	for _, a := range h.attrs {
		fields[fieldName(a.Key)] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[fieldName(a.Key)] = a.Value.String()
		return true
	})

	journal.Send(r.Message, priority(r.Level), fields)

	return h.inner.Handle(ctx, r)
}

func (h *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &journalHandler{
		inner: h.inner.WithAttrs(attrs),
		level: h.level,
		attrs: merged,
	}
}

func (h *journalHandler) WithGroup(name string) slog.Handler {
	return &journalHandler{
		inner: h.inner.WithGroup(name),
		level: h.level,
		attrs: h.attrs,
	}
}

// fieldName converts an attribute key to a journal field name. Journal
// fields are uppercase with underscores and must not start with one.
func fieldName(key string) string {
	var b strings.Builder
	for _, c := range strings.ToUpper(key) {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), "_")
	if name == "" {
		name = fmt.Sprintf("FIELD_%d", len(key))
	}
	return name
}

func priority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}
