// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestPretty(buf *bytes.Buffer, opts ...Option) *slog.Logger {
	opts = append(opts, WithDestinationWriter(buf))

	return slog.New(NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelDebug}, opts...))
}

func TestPrettyHandler_PlainFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestPretty(buf)

	logger.Info("job finished", "job", "sample1", "exitCode", 0)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "["), "timestamp first: %q", line)
	assert.Contains(t, line, "INFO: job finished ")
	assert.Contains(t, line, `"job": "sample1"`)
	assert.Contains(t, line, `"exitCode": 0`)
	assert.NotContains(t, line, "\033[", "colour codes must not appear without colour")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestPrettyHandler_NoAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	newTestPretty(buf).Warn("nothing else")

	assert.Contains(t, buf.String(), "WARN: nothing else \n")

	buf.Reset()
	newTestPretty(buf, WithOutputEmptyAttrs()).Warn("nothing else")

	assert.Contains(t, buf.String(), "WARN: nothing else {}")
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestPretty(buf).With("runID", "abc").WithGroup("job")

	logger.Info("started", "name", "sample2")

	out := buf.String()
	assert.Contains(t, out, `"runID": "abc"`)
	assert.Contains(t, out, `"job": {`)
	assert.Contains(t, out, `"name": "sample2"`)
}

func TestPrettyHandler_ReplaceAttrDropsTime(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewPrettyHandler(&slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}

			return a
		},
	}, WithDestinationWriter(buf)))

	logger.Info("hello")

	assert.Equal(t, "INFO: hello \n", buf.String())
}

func TestPrettyHandler_Colour(t *testing.T) {
	buf := &bytes.Buffer{}
	newTestPretty(buf, WithColour()).Error("boom")

	// Colour follows the color package switch, which tests leave at its detected value.
	assert.Contains(t, buf.String(), "boom")
}
