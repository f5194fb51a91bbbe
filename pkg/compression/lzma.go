package compression

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LZMA implements Compression with a Go-based LZMA implementation. The
// 13-byte header (properties, dictionary size, 8-byte uncompressed size)
// matches what LzmaCompress produces, so images compressed either way decode
// the same.
type LZMA struct{}

// Name returns the type of compression employed.
func (c *LZMA) Name() string {
	return "LZMA"
}

// Decode decodes a byte slice of LZMA data.
func (c *LZMA) Decode(encodedData []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewBuffer(encodedData))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Encode encodes a byte slice with LZMA.
func (c *LZMA) Encode(decodedData []byte) ([]byte, error) {
	var buf bytes.Buffer
	wc := lzma.WriterConfig{
		// UEFI expects the real uncompressed size in the header, not the
		// streaming -1 marker.
		SizeInHeader: true,
		Size:         int64(len(decodedData)),
		EOSMarker:    false,
	}
	w, err := wc.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(decodedData); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
