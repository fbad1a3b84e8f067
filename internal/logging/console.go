package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// runIDWidth is how much of the run id the console shows.
const runIDWidth = 8

// consoleHandler writes one human-readable line per record:
//
//	2026-03-01T10:00:00Z WARN  pipeline [Goblin/portrait]: no portrait matched best_ratio=0.42 hint="..." run=1f0c2a9e
//
// Creature and stage form the bracketed subject. event_type is left to the
// JSON format.
type consoleHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	level   slog.Level
	source  bool
	subject subject
	fields  []field
	group   string
}

type subject struct {
	component string
	creature  string
	stage     string
	runID     string
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, level slog.Level, source bool) *consoleHandler {
	return &consoleHandler{mu: new(sync.Mutex), w: w, level: level, source: source}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.fields = append([]field(nil), h.fields...)
	for _, a := range attrs {
		c.fields = c.subject.absorb(c.fields, h.group, a)
	}
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group = joinKey(h.group, name)
	return &c
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	subj := h.subject
	fields := append([]field(nil), h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = subj.absorb(fields, h.group, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var buf bytes.Buffer
	buf.WriteString(ts.UTC().Format(time.RFC3339))
	fmt.Fprintf(&buf, " %-5s ", levelLabel(r.Level))
	if head := subj.head(); head != "" {
		buf.WriteString(head)
		buf.WriteString(": ")
	}
	if msg := strings.TrimSpace(r.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if h.source {
		if src := r.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&buf, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range fields {
		buf.WriteByte(' ')
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(f.value))
	}
	if subj.runID != "" {
		buf.WriteString(" run=")
		buf.WriteString(shortID(subj.runID))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// absorb routes top-level build fields into the subject and appends the
// rest to dst, flattening groups into dotted keys.
func (s *subject) absorb(dst []field, group string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		prefix := group
		if a.Key != "" {
			prefix = joinKey(group, a.Key)
		}
		for _, inner := range a.Value.Group() {
			dst = s.absorb(dst, prefix, inner)
		}
		return dst
	}
	if group == "" {
		switch a.Key {
		case FieldComponent:
			s.component = a.Value.String()
			return dst
		case FieldCreature:
			s.creature = a.Value.String()
			return dst
		case FieldStage:
			s.stage = a.Value.String()
			return dst
		case FieldRunID:
			s.runID = a.Value.String()
			return dst
		case FieldEventType:
			return dst
		case FieldErrorHint:
			a.Key = "hint"
		}
	}
	return append(dst, field{key: joinKey(group, a.Key), value: a.Value})
}

// head renders "component [creature/stage]" with empty parts left out.
func (s subject) head() string {
	label := s.creature
	if s.stage != "" {
		if label != "" {
			label += "/"
		}
		label += s.stage
	}
	switch {
	case label == "":
		return s.component
	case s.component == "":
		return "[" + label + "]"
	default:
		return s.component + " [" + label + "]"
	}
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	if key == "" {
		return group
	}
	return group + "." + key
}

func shortID(id string) string {
	if len(id) > runIDWidth {
		return id[:runIDWidth]
	}
	return id
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
