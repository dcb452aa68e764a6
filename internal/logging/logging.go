// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// Options selects log destinations.
type Options struct {
	Level slog.Level
	File  string // also write every record here when set
	Color bool   // colourise console output

	Fluent FluentOptions
}

// FluentOptions configures forwarding to a Fluent Bit / fluentd collector.
type FluentOptions struct {
	Enabled bool
	Host    string
	Port    int
	Tag     string
}

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parsing log level %q: %w", s, err)
	}
	return l, nil
}

// Setup installs the default logger: records below ERROR go to stdout, ERROR
// and above to stderr, optionally mirrored to a file and a fluent collector.
// The returned cleanup flushes and closes whatever was opened.
func Setup(opts Options) (func(), error) {
	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)
	var fileW io.Writer
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		closers = append(closers, f)
		fileW = f
	}

	var handler slog.Handler = NewRouter(
		consoleHandler(stdoutW, opts),
		consoleHandler(stderrW, opts),
		opts.Level,
	)
	if fileW != nil {
		handler = Fanout(handler, slog.NewTextHandler(fileW, &slog.HandlerOptions{Level: opts.Level}))
	}

	if opts.Fluent.Enabled {
		client, err := fluent.New(fluent.Config{
			FluentHost: opts.Fluent.Host,
			FluentPort: opts.Fluent.Port,
			TagPrefix:  opts.Fluent.Tag,
			Async:      true,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("connecting to fluent: %w", err)
		}
		closers = append(closers, client)
		handler = Fanout(handler, NewFluentHandler(client, opts.Level))
	}

	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func consoleHandler(w io.Writer, opts Options) slog.Handler {
	if opts.Color {
		return tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: opts.Level})
}

// levelRouter sends records below ERROR to stdout and the rest to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
	min    slog.Level
}

// NewRouter returns a handler splitting records between stdout and stderr
// handlers by level.
func NewRouter(stdout, stderr slog.Handler, min slog.Level) slog.Handler {
	return &levelRouter{stdout: stdout, stderr: stderr, min: min}
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{stdout: lr.stdout.WithAttrs(attrs), stderr: lr.stderr.WithAttrs(attrs), min: lr.min}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{stdout: lr.stdout.WithGroup(name), stderr: lr.stderr.WithGroup(name), min: lr.min}
}

type fanout []slog.Handler

// Fanout returns a handler passing each record to every handler that is
// enabled for it.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return fanout(handlers)
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
