package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Poster is the part of *fluent.Fluent the handler needs.
type Poster interface {
	Post(tag string, message any) error
}

// fluentHandler forwards records as flat maps tagged with the level name.
type fluentHandler struct {
	client Poster
	min    slog.Level
	attrs  []slog.Attr
	group  string
}

// NewFluentHandler returns a handler posting records at or above min to client.
func NewFluentHandler(client Poster, min slog.Level) slog.Handler {
	return &fluentHandler{client: client, min: min}
}

func (h *fluentHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *fluentHandler) Handle(_ context.Context, r slog.Record) error {
	data := make(map[string]any, len(h.attrs)+r.NumAttrs()+3)
	for _, a := range h.attrs {
		h.add(data, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.add(data, h.group, a)
		return true
	})
	data["level"] = r.Level.String()
	data["message"] = r.Message
	data["timestamp"] = r.Time.UTC().Format(time.RFC3339Nano)

	return h.client.Post(strings.ToLower(r.Level.String()), data)
}

func (h *fluentHandler) add(data map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.add(data, key, ga)
		}
		return
	}
	if err, ok := a.Value.Any().(error); ok {
		data[key] = err.Error()
		return
	}
	data[key] = a.Value.Any()
}

func (h *fluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *fluentHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		next.group += "." + name
	} else {
		next.group = name
	}
	return &next
}
