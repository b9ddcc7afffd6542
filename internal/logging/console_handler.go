package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

// consoleSink is shared by every handler derived from one logger so lines
// from different components never interleave.
type consoleSink struct {
	mu        sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	color     bool
	addSource bool
}

// consoleHandler prints one line per record:
//
//	15:04:05.000 INFO  [experience] 1a2b3c4d/playing @42 state entered key=value
//
// component, session, state and frame form the prefix; every other attribute
// trails the message as key=value.
type consoleHandler struct {
	sink   *consoleSink
	fields []field
	prefix string
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource, color bool) slog.Handler {
	return &consoleHandler{sink: &consoleSink{w: w, level: lvl, color: color, addSource: addSource}}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.sink.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = appendFields(append([]field(nil), h.fields...), h.prefix, attrs)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	fields := append([]field(nil), h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendFields(fields, h.prefix, []slog.Attr{a})
		return true
	})
	fields = lastWins(fields)

	var component, session, state, frame string
	rest := fields[:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
		case FieldSessionID:
			session = attrString(f.value)
		case FieldState:
			state = attrString(f.value)
		case FieldFrame:
			frame = attrString(f.value)
		default:
			rest = append(rest, f)
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	h.paint(&b, ansiDim, formatTimestamp(ts))
	b.WriteByte(' ')
	switch label := levelLabel(r.Level); {
	case r.Level >= slog.LevelError:
		h.paint(&b, ansiRed, label)
	case r.Level >= slog.LevelWarn:
		h.paint(&b, ansiYellow, label)
	default:
		b.WriteString(label)
	}
	if component != "" {
		b.WriteString(" [" + component + "]")
	}
	if subject := subjectOf(session, state); subject != "" {
		b.WriteString(" " + subject)
	}
	if frame != "" {
		b.WriteString(" @" + frame)
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" " + msg)
	for _, f := range rest {
		b.WriteString(" " + f.key + "=" + formatValue(f.value))
	}
	if h.sink.addSource {
		if src := r.Source(); src != nil && src.File != "" {
			b.WriteString(" (" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + ")")
		}
	}
	b.WriteByte('\n')

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	_, err := io.WriteString(h.sink.w, b.String())
	return err
}

func (h *consoleHandler) paint(b *strings.Builder, code, text string) {
	if !h.sink.color {
		b.WriteString(text)
		return
	}
	b.WriteString(code + text + ansiReset)
}

// subjectOf renders "1a2b3c4d/playing"; session ids are cut to eight characters.
func subjectOf(session, state string) string {
	if len(session) > 8 {
		session = session[:8]
	}
	switch {
	case session != "" && state != "":
		return session + "/" + state
	case session != "":
		return session
	default:
		return state
	}
}

func appendFields(dst []field, prefix string, attrs []slog.Attr) []field {
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		v := a.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			p := prefix
			if a.Key != "" {
				p += a.Key + "."
			}
			dst = appendFields(dst, p, v.Group())
			continue
		}
		dst = append(dst, field{key: prefix + a.Key, value: v})
	}
	return dst
}

// lastWins drops earlier duplicates, keeping first-seen order.
func lastWins(fields []field) []field {
	pos := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if i, ok := pos[f.key]; ok {
			out[i] = f
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}
