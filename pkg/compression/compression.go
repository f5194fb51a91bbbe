// Package compression handles the LZMA wrapping used by reference firmware
// images and GUID-defined sections.
package compression

import (
	"os/exec"

	"github.com/tinytoy-sec/fwpatcher/pkg/guid"
)

// Compressor defines a single compression scheme (such as LZMA).
type Compressor interface {
	// Name is typically the name of a class.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)
}

// Well-known GUIDs for GUIDed sections containing compressed data.
var (
	BROTLIGUID  = *guid.MustParse("3D532050-5CDA-4FD0-879E-0F7F630D5AFB")
	LZMAGUID    = *guid.MustParse("EE4E5898-3914-4259-9D6E-DC7BD79403CF")
	LZMAX86GUID = *guid.MustParse("D42AE6BD-1352-4BFB-909A-CA72A6EAE889")
	ZLIBGUID    = *guid.MustParse("CE3233F5-2CD6-4D87-9152-4A238BB6D1C4")
)

// NewLZMA returns the LZMA compressor to use: the system xz command when one
// is on PATH, otherwise the internal Go implementation. The system tool is
// faster and produces smaller output, but the internal path keeps the
// patcher usable on hosts without xz.
func NewLZMA(xzPath string) Compressor {
	if xzPath == "" {
		xzPath = "xz"
	}
	if _, err := exec.LookPath(xzPath); err == nil {
		return &SystemLZMA{xzPath}
	}
	return &LZMA{}
}
