package lgr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

const timeFormat = "[15:04:05.000]"

// PrettyHandler prints one colored line per record followed by its
// attributes as indented JSON.
type PrettyHandler struct {
	opts  slog.HandlerOptions
	w     io.Writer
	mu    *sync.Mutex
	attrs []slog.Attr
	group string
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{w: w, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return l >= minLevel
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	lvl := r.Level.String() + ":"
	switch {
	case r.Level >= slog.LevelError:
		lvl = color.RedString(lvl)
	case r.Level >= slog.LevelWarn:
		lvl = color.YellowString(lvl)
	case r.Level >= slog.LevelInfo:
		lvl = color.BlueString(lvl)
	default:
		lvl = color.MagentaString(lvl)
	}

	fields := make(map[string]interface{}, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		h.collect(fields, a, "")
	}
	r.Attrs(func(a slog.Attr) bool {
		h.collect(fields, a, h.group)
		return true
	})

	var body []byte
	if len(fields) > 0 {
		var err error
		body, err = json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return err
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := fmt.Fprintln(h.w, r.Time.Format(timeFormat), lvl, color.CyanString(r.Message), color.WhiteString(string(body)))
	return err
}

// WithAttrs qualifies attrs with the groups opened so far. Groups opened
// later do not apply to them.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	h2 := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	h2.group = name
	return &h2
}

func (h *PrettyHandler) collect(fields map[string]interface{}, a slog.Attr, group string) {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	fields[key] = resolve(a.Value)
}

func resolve(v slog.Value) interface{} {
	v = v.Resolve()
	if v.Kind() != slog.KindGroup {
		return v.Any()
	}

	group := map[string]interface{}{}
	for _, a := range v.Group() {
		group[a.Key] = resolve(a.Value)
	}
	return group
}
