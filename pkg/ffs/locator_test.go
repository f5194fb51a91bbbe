package ffs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPattern = bytes.Repeat([]byte{0xDE, 0xAD}, 8)

func plantPattern(buf []byte, offsets ...int) {
	for _, o := range offsets {
		copy(buf[o:], testPattern)
	}
}

func collect(l *Locator) []int64 {
	var got []int64
	for {
		o, ok := l.Next()
		if !ok {
			return got
		}
		got = append(got, o)
	}
}

func TestLocatorDescendingOrder(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		offsets []int
		want    []int64
	}{
		{"single", 64, []int{10}, []int64{10}},
		{"several", 256, []int{5, 40, 100}, []int64{100, 40, 5}},
		{"at start", 64, []int{0}, []int64{0}},
		{"at end", 64, []int{48}, []int64{48}},
		{"adjacent", 64, []int{0, 16}, []int64{16, 0}},
		{"none", 64, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.size)
			plantPattern(buf, tt.offsets...)
			got := collect(NewLocator(buf, testPattern))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocatorExhausted(t *testing.T) {
	buf := make([]byte, 64)
	plantPattern(buf, 10)
	l := NewLocator(buf, testPattern)

	_, ok := l.Next()
	require.True(t, ok)
	_, ok = l.Next()
	require.False(t, ok)
	// Stays exhausted.
	_, ok = l.Next()
	assert.False(t, ok)
}

func TestLocatorDegenerateInputs(t *testing.T) {
	_, ok := NewLocator(nil, testPattern).Next()
	assert.False(t, ok, "empty buffer")

	_, ok = NewLocator(make([]byte, 64), nil).Next()
	assert.False(t, ok, "empty pattern")

	_, ok = NewLocator(make([]byte, 4), testPattern).Next()
	assert.False(t, ok, "buffer shorter than pattern")
}
