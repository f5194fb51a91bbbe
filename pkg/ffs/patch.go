package ffs

import (
	"github.com/tinytoy-sec/fwpatcher/pkg/guid"
	"github.com/tinytoy-sec/fwpatcher/pkg/log"
)

// Patcher replaces the payload of every occurrence of a GUID-identified FFS
// file inside an image buffer. It mutates the buffer in place and never
// changes its length: a replacement overwrites, shrinkage is filled with the
// erase value, and growth beyond the original file is rejected.
type Patcher struct {
	// GUID identifying the existing file to replace. Its on-disk bytes are
	// the search pattern.
	SearchGUID guid.GUID

	// Source names the image in errors. Optional.
	Source string

	// Logger receives per-occurrence diagnostics. Defaults to the package
	// sink when nil.
	Logger log.Logger
}

func (p *Patcher) logger() log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.DefaultLogger
}

// Apply patches every occurrence of the search GUID in buf with replacement,
// in descending offset order, and returns the number of files patched.
//
// For each occurrence the original state byte is retained and written back
// after the overwrite: the replacement blob carries whatever state its
// builder set, which need not match the lifecycle state this image expects
// for the file.
func (p *Patcher) Apply(buf, replacement []byte) (int, error) {
	loc := NewLocator(buf, p.SearchGUID[:])
	blen := int64(len(buf))

	patchCnt := 0
	for {
		offset, ok := loc.Next()
		if !ok {
			break
		}

		// The whole header must be inside the buffer before any field reads.
		if offset+HeaderLength > blen {
			return patchCnt, &CorruptImageError{Offset: offset, Need: HeaderLength, Have: blen - offset}
		}

		originalState := buf[offset+StateOffset]

		var size3 [3]uint8
		copy(size3[:], buf[offset+SizeOffset:offset+SizeOffset+SizeLength])
		oldSize := Read3Size(size3)
		p.logger().Debugf("original FFS size at %#x: %d", offset, oldSize)

		if len(replacement) == 0 {
			return patchCnt, &InvalidReplacementError{Size: 0, OldSize: oldSize, Reason: "replacement is empty, upstream build produced no data"}
		}
		if uint64(len(replacement)) > oldSize {
			return patchCnt, &InvalidReplacementError{
				Size:    len(replacement),
				OldSize: oldSize,
				Reason:  "replacement exceeds the original file size",
			}
		}
		if offset+int64(oldSize) > blen {
			return patchCnt, &CorruptImageError{Offset: offset, Need: int64(oldSize), Have: blen - offset}
		}

		p.logger().Infof("patching in new FFS file at %#x", offset)
		copy(buf[offset:], replacement)

		// Fill the leftover tail of the old file so it reads as erased
		// flash, not a truncated section stream.
		if gap := oldSize - uint64(len(replacement)); gap > 0 {
			p.logger().Debugf("erasing remainder of the old FFS file: %d bytes", gap)
			tail := buf[offset+int64(len(replacement)) : offset+int64(oldSize)]
			for i := range tail {
				tail[i] = ErasedByte
			}
		}

		buf[offset+StateOffset] = originalState
		patchCnt++
	}

	if patchCnt == 0 {
		return 0, &NotFoundError{GUID: p.SearchGUID, Source: p.Source}
	}
	return patchCnt, nil
}
