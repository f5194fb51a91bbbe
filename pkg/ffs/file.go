// Package ffs knows just enough about EFI firmware file headers to replace
// the payload of a file found at a raw byte offset. It deliberately does not
// parse firmware volumes: the image is treated as an opaque byte stream and
// all header fields are read at fixed offsets from the file GUID.
package ffs

import (
	"github.com/tinytoy-sec/fwpatcher/pkg/guid"
)

// Fixed layout of EFI_FFS_FILE_HEADER, relative to the GUID at its start.
// UEFI PI Spec 3.2.3.
const (
	// HeaderLength is the standard firmware file header size. Payload data
	// begins here. Large files carry an extended header, which this tool
	// does not handle.
	HeaderLength = 0x18
	// SizeOffset is the offset of the 3-byte little-endian file size.
	SizeOffset = 20
	// SizeLength is the width of the size field. Damn the 3 byte sizes.
	SizeLength = 3
	// StateOffset is the offset of the file state byte.
	StateOffset = 23
)

// ErasedByte is the value unused flash reads as. Space freed by a shrinking
// replacement is filled with it so the remainder reads as erased rather than
// stale content.
const ErasedByte byte = 0xFF

// FileState records a file's lifecycle within its volume. The on-disk value
// is xored with the volume's erase polarity, which is why the patcher must
// preserve it verbatim instead of trusting the replacement blob's copy.
type FileState uint8

// File state bits.
const (
	FileStateHeaderConstruction FileState = 0x01
	FileStateHeaderValid        FileState = 0x02
	FileStateDataValid          FileState = 0x04
	FileStateMarkedForUpdate    FileState = 0x08
	FileStateDeleted            FileState = 0x10
	FileStateHeaderInvalid      FileState = 0x20

	FileStateValid FileState = FileStateHeaderConstruction | FileStateHeaderValid | FileStateDataValid
)

// FVFileType represents the different types possible in an EFI file.
type FVFileType uint8

// UEFI FV file types used by this tool.
const (
	FVFileTypeRaw FVFileType = iota + 1
	FVFileTypeFreeForm
	FVFileTypeSECCore
	FVFileTypePEICore
	FVFileTypeDXECore
	FVFileTypePEIM
	FVFileTypeDriver
	FVFileTypeVolumeImage FVFileType = 0x0B
)

// IntegrityCheck holds the 8 bit checksums for the file header and body.
type IntegrityCheck struct {
	Header uint8
	File   uint8
}

// FileHeader mirrors EFI_FFS_FILE_HEADER. The constants above must agree
// with this layout; tests assemble headers through it to keep them honest.
type FileHeader struct {
	GUID       guid.GUID
	Checksum   IntegrityCheck
	Type       FVFileType
	Attributes uint8
	Size       [3]uint8
	State      FileState
}

// Read3Size reads a 3-byte little-endian size.
func Read3Size(size [3]uint8) uint64 {
	return uint64(size[2])<<16 | uint64(size[1])<<8 | uint64(size[0])
}

// Write3Size converts a size to a 3-byte little-endian field, saturating at
// 0xFFFFFF like the large-file marker does.
func Write3Size(size uint64) [3]uint8 {
	if size >= 0xFFFFFF {
		return [3]uint8{0xFF, 0xFF, 0xFF}
	}
	return [3]uint8{uint8(size), uint8(size >> 8), uint8(size >> 16)}
}

// Checksum8 computes an 8 bit checksum of the slice per the UEFI PI spec.
func Checksum8(data []byte) uint8 {
	var sum uint8
	for _, d := range data {
		sum += d
	}
	return sum
}
