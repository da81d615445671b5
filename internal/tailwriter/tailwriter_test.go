// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tailwriter

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastLineWriter_ForwardsAndTracks(t *testing.T) {
	tests := []struct {
		name   string
		writes []string
		want   string
		lines  []string
	}{
		{
			name:   "single complete line",
			writes: []string{"hello\n"},
			want:   "hello",
			lines:  []string{"hello"},
		},
		{
			name:   "line split across writes",
			writes: []string{"hel", "lo\nwor", "ld\n"},
			want:   "world",
			lines:  []string{"hello", "world"},
		},
		{
			name:   "trailing partial is not a line",
			writes: []string{"one\ntwo"},
			want:   "one",
			lines:  []string{"one"},
		},
		{
			name:   "partial only",
			writes: []string{"working..."},
			want:   "working...",
			lines:  nil,
		},
		{
			name:   "carriage returns trimmed",
			writes: []string{"a\r\nb\r\n"},
			want:   "b",
			lines:  []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := &bytes.Buffer{}

			var lines []string

			w := New(dst, func(l string) { lines = append(lines, l) })

			var all string
			for _, s := range tt.writes {
				n, err := w.Write([]byte(s))
				require.NoError(t, err)
				assert.Equal(t, len(s), n)

				all += s
			}

			assert.Equal(t, all, dst.String())
			assert.Equal(t, tt.want, w.LastLine(0))
			assert.Equal(t, tt.lines, lines)
		})
	}
}

func TestLastLineWriter_Truncate(t *testing.T) {
	w := New(&bytes.Buffer{}, nil)
	_, _ = w.Write([]byte("0123456789\n"))

	assert.Equal(t, "0123...", w.LastLine(7))
	assert.Equal(t, "0123456789", w.LastLine(20))
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 2, errors.New("disk full")
}

func TestLastLineWriter_ShortWrite(t *testing.T) {
	w := New(failingWriter{}, nil)

	n, err := w.Write([]byte("ab\ncd\n"))
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ab", w.LastLine(0), "only written bytes are tracked")
}

func TestLastLineWriter_Concurrent(t *testing.T) {
	w := New(&bytes.Buffer{}, nil)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _ = w.Write([]byte("line\n"))
			_ = w.LastLine(0)
		}()
	}

	wg.Wait()
	assert.Equal(t, "line", w.LastLine(0))
}
