// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"errors"
	"log/slog"
)

var _ slog.Handler = (*FanoutHandler)(nil)

// FanoutHandler passes every record to each of its handlers that is enabled
// for the record's level.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanout returns a handler writing to all of hs. Nil handlers are ignored.
func NewFanout(hs ...slog.Handler) *FanoutHandler {
	f := &FanoutHandler{handlers: make([]slog.Handler, 0, len(hs))}

	for _, h := range hs {
		if h != nil {
			f.handlers = append(f.handlers, h)
		}
	}

	return f
}

// Enabled reports whether any handler accepts the level.
func (f *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

// Handle implements slog.Handler.
func (f *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}

		err = errors.Join(err, h.Handle(ctx, r.Clone()))
	}

	return err
}

// WithAttrs implements slog.Handler.
func (f *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}

	return &FanoutHandler{handlers: next}
}

// WithGroup implements slog.Handler.
func (f *FanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}

	return &FanoutHandler{handlers: next}
}
