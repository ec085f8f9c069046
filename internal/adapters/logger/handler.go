// Package logger implements ports.Logger on top of log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/gate/internal/ui/output"
	"go.trai.ch/gate/internal/ui/style"
)

// PrettyHandler is a slog.Handler writing one coloured line per record:
// an optional level icon, the message, then key=value pairs.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	// bound holds attributes added through WithAttrs, already rendered.
	bound []string
	// prefix is the dotted group path applied to record attributes.
	prefix string
}

// NewPrettyHandler creates a PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &PrettyHandler{out: output.New(w), level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	icon, color := levelStyle(r.Level)

	var sb strings.Builder
	if icon != "" {
		sb.WriteString(icon + " ")
	}
	sb.WriteString(r.Message)

	pairs := append([]string(nil), h.bound...)
	r.Attrs(func(attr slog.Attr) bool {
		pairs = appendAttr(pairs, h.prefix, attr)
		return true
	})
	for _, p := range pairs {
		sb.WriteString(" " + p)
	}
	sb.WriteString("\n")

	_, err := h.out.WriteString(h.out.String(sb.String()).Foreground(color).String())
	return err
}

// WithAttrs returns a handler that appends attrs to every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := append([]string(nil), h.bound...)
	for _, attr := range attrs {
		bound = appendAttr(bound, h.prefix, attr)
	}
	return &PrettyHandler{out: h.out, level: h.level, bound: bound, prefix: h.prefix}
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PrettyHandler{out: h.out, level: h.level, bound: h.bound, prefix: h.prefix + name + "."}
}

func levelStyle(level slog.Level) (string, termenv.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, termenv.RGBColor(string(style.Red))
	case level >= slog.LevelWarn:
		return style.Warning, termenv.RGBColor(string(style.Yellow))
	default:
		return "", termenv.RGBColor(string(style.Slate))
	}
}

// appendAttr renders attr as key=value, flattening group values into dotted keys.
func appendAttr(dst []string, prefix string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}

	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			dst = appendAttr(dst, groupPrefix, member)
		}
		return dst
	}

	return append(dst, prefix+attr.Key+"="+quoteValue(attr.Value.String()))
}

func quoteValue(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		return strconv.Quote(v)
	}
	return v
}
