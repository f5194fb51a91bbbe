// Package guid implements the mixed-endian GUID layout used on disk by UEFI
// firmware volumes and FFS file headers.
package guid

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// Size of a GUID in bytes.
	Size = 16
	// UExample is a example string GUID.
	UExample  = "01234567-89AB-CDEF-0123-456789ABCDEF"
	strFormat = "%02X%02X%02X%02X-%02X%02X-%02X%02X-%02X%02X-%02X%02X%02X%02X%02X%02X"
)

// The first three fields are stored little endian, the rest are stored as
// they read. This is the standard on-disk layout, not the textual grouping.
var fields = [...]int{4, 2, 2, 1, 1, 1, 1, 1, 1, 1, 1}

// GUID is a unique identifier in its on-disk byte order. The array contents
// are the exact bytes that appear in an image, so it doubles as the search
// pattern for locating a file header.
type GUID [Size]byte

// FormatError is returned when GUID text cannot be parsed.
type FormatError struct {
	Text string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("guid string %q is malformed, need the format %v", e.Text, UExample)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func reverse(b []byte) {
	for i := 0; i < len(b)/2; i++ {
		other := len(b) - i - 1
		b[other], b[i] = b[i], b[other]
	}
}

// Parse parses a hyphenated GUID string into its on-disk representation.
func Parse(s string) (*GUID, error) {
	// Remove the hyphens, the byte positions tell us everything.
	stripped := strings.Replace(s, "-", "", -1)
	decoded, err := hex.DecodeString(stripped)
	if err != nil {
		return nil, &FormatError{Text: s, Err: err}
	}

	if len(decoded) != Size {
		return nil, &FormatError{Text: s}
	}

	u := GUID{}
	copy(u[:], decoded[:])
	// Correct endianness of the leading fields.
	i := 0
	for _, fieldlen := range fields {
		reverse(u[i : i+fieldlen])
		i += fieldlen
	}
	return &u, nil
}

// MustParse parses a GUID string or panics. Only for well-known constants.
func MustParse(s string) *GUID {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}

func (u GUID) String() string {
	// Value receiver, so we can flip the bytes back in place.
	i := 0
	for _, fieldlen := range fields {
		reverse(u[i : i+fieldlen])
		i += fieldlen
	}
	// Convert to []interface{} for easy printing.
	b := make([]interface{}, Size)
	for i := range u[:] {
		b[i] = u[i]
	}
	return fmt.Sprintf(strFormat, b...)
}

// MarshalJSON implements the marshaller interface so GUIDs round-trip
// through config and summary files as text.
func (u *GUID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalJSON implements the unmarshaller interface.
func (u *GUID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	g, err := Parse(s)
	if err != nil {
		return err
	}
	copy(u[:], g[:])
	return nil
}
