// Package ffsbuild produces the replacement FFS blob from a DXE core EFI
// image. The patch engine only depends on the Builder capability, so tests
// and other front ends can substitute their own blob source.
package ffsbuild

import (
	"github.com/tinytoy-sec/fwpatcher/pkg/guid"
)

// Builder assembles a complete FFS file from an executable image, a content
// GUID and a human readable description. The returned blob encodes its own
// total length in its header.
type Builder interface {
	Build(efiPath string, contentGUID guid.GUID, description string) ([]byte, error)
}
