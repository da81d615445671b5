// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tailwriter

import (
	"io"
	"strings"
	"sync"
)

// LastLineWriter wraps an io.Writer. It is safe for concurrent use.
type LastLineWriter struct {
	dst     io.Writer
	onLine  func(string)
	partial strings.Builder
	last    string
	mu      sync.RWMutex
}

// New returns a LastLineWriter writing to dst. onLine, if not nil, is called
// with every completed line (without the trailing newline or carriage return).
func New(dst io.Writer, onLine func(string)) *LastLineWriter {
	return &LastLineWriter{
		dst:    dst,
		onLine: onLine,
	}
}

// Write implements io.Writer. Bytes reach dst before line tracking is updated.
func (w *LastLineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.dst.Write(p)
	if n > 0 {
		w.track(string(p[:n]))
	}

	return n, err //nolint:wrapcheck
}

// track must be called with the lock held.
func (w *LastLineWriter) track(data string) {
	for {
		i := strings.IndexByte(data, '\n')
		if i < 0 {
			w.partial.WriteString(data)
			return
		}

		w.partial.WriteString(data[:i])
		line := strings.TrimRight(w.partial.String(), "\r")
		w.partial.Reset()

		w.last = line
		if w.onLine != nil {
			w.onLine(line)
		}

		data = data[i+1:]
	}
}

// LastLine returns the last complete line, or the pending partial line if no
// line has completed yet. If maxLength > 3 the result is truncated to that
// length with a "..." suffix.
func (w *LastLineWriter) LastLine(maxLength int) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := w.last
	if result == "" {
		result = w.partial.String()
	}

	if maxLength > 3 && len(result) > maxLength {
		result = result[:maxLength-3] + "..."
	}

	return result
}
