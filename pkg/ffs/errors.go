package ffs

import (
	"fmt"

	"github.com/tinytoy-sec/fwpatcher/pkg/guid"
)

// NotFoundError reports that the search GUID does not occur anywhere in the
// image. A patch run that matches nothing is a failure, never a no-op.
type NotFoundError struct {
	GUID   guid.GUID
	Source string
}

func (e *NotFoundError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("no FFS file with GUID %v found", e.GUID)
	}
	return fmt.Sprintf("no FFS file with GUID %v found in %s", e.GUID, e.Source)
}

// InvalidReplacementError reports a replacement blob that cannot be patched
// in: empty (the upstream build produced nothing) or larger than the space
// the original file occupies.
type InvalidReplacementError struct {
	Size    int
	OldSize uint64
	Reason  string
}

func (e *InvalidReplacementError) Error() string {
	return fmt.Sprintf("invalid replacement FFS (%d bytes): %s", e.Size, e.Reason)
}

// CorruptImageError reports a header or payload access beyond the end of the
// image buffer, meaning the reference image is truncated or the match was
// not a real file header. There is no recovery path.
type CorruptImageError struct {
	Offset int64
	Need   int64
	Have   int64
}

func (e *CorruptImageError) Error() string {
	return fmt.Sprintf("corrupt image: access at %#x needs %#x bytes, image has %#x", e.Offset, e.Need, e.Have)
}
