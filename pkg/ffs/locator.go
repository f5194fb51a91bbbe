package ffs

import (
	"bytes"
)

// Locator finds occurrences of a byte pattern in an image buffer, scanning
// backward from the end. Firmware volumes tend to place recently added files
// near the end of the file system, so the backward scan hits the primary
// candidate first and then walks into any earlier stale copies.
//
// The scan is purely textual: a GUID that happens to occur as incidental
// data is indistinguishable from a real file header. Known limitation.
type Locator struct {
	buf     []byte
	pattern []byte
	window  int
}

// NewLocator returns a Locator scanning buf for pattern, highest offset
// first. The pattern is typically an on-disk GUID (guid.GUID[:]).
func NewLocator(buf, pattern []byte) *Locator {
	return &Locator{
		buf:     buf,
		pattern: pattern,
		window:  len(buf),
	}
}

// Next returns the next occurrence offset in descending order. The second
// return is false once the remaining, earlier portion of the buffer holds no
// further match.
func (l *Locator) Next() (int64, bool) {
	if l.window <= 0 || len(l.pattern) == 0 {
		return -1, false
	}
	offset := bytes.LastIndex(l.buf[:l.window], l.pattern)
	if offset == -1 {
		l.window = 0
		return -1, false
	}
	// Exclude this match from the next search window.
	l.window = offset
	return int64(offset), true
}
