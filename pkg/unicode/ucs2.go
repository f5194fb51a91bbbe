// Package unicode converts between UTF-8 and the null-terminated UCS-2 used
// by UEFI user interface sections.
package unicode

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// UCS2ToUTF8 converts from UCS2 to UTF8.
func UCS2ToUTF8(input []byte) (string, error) {
	e := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	output, _, err := transform.Bytes(e.NewDecoder(), input)
	if err != nil {
		return "", err
	}
	// Remove null terminator if one exists.
	if len(output) > 0 && output[len(output)-1] == 0 {
		output = output[:len(output)-1]
	}
	return string(output), nil
}

// UTF8ToUCS2 converts from UTF8 to UCS2.
func UTF8ToUCS2(input string) ([]byte, error) {
	e := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	input = input + "\000" // null terminator
	output, _, err := transform.Bytes(e.NewEncoder(), []byte(input))
	if err != nil {
		return nil, err
	}
	return output, nil
}
