package logging

import (
	"context"
	"errors"
	"log/slog"
)

// FanoutHandler duplicates every record to all wrapped handlers, so stdout
// and the database sink see the same stream.
type FanoutHandler struct {
	sinks []slog.Handler
}

func NewMultiHandler(sinks ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{sinks: sinks}
}

func (f *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range f.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers the record to every enabled sink. One sink failing does
// not stop delivery to the others.
func (f *FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, sink := range f.sinks {
		if !sink.Enabled(ctx, record.Level) {
			continue
		}
		if err := sink.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, sink := range f.sinks {
		sinks[i] = sink.WithAttrs(attrs)
	}
	return &FanoutHandler{sinks: sinks}
}

func (f *FanoutHandler) WithGroup(name string) slog.Handler {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, sink := range f.sinks {
		sinks[i] = sink.WithGroup(name)
	}
	return &FanoutHandler{sinks: sinks}
}
