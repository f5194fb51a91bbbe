package compression

import (
	"bytes"
	"encoding/binary"

	"github.com/tinytoy-sec/fwpatcher/pkg/extool"
)

// SystemLZMA implements Compression by calling out to the system's xz
// command. The system compressor is typically faster and generates smaller
// files than the Go-based implementation. Tool failures surface as
// *extool.ExternalToolError with the captured stderr.
type SystemLZMA struct {
	xzPath string
}

// Name returns the type of compression employed.
func (c *SystemLZMA) Name() string {
	return "LZMA"
}

// Decode decodes a byte slice of LZMA data.
func (c *SystemLZMA) Decode(encodedData []byte) ([]byte, error) {
	return extool.Run(c.xzPath, encodedData, "--format=lzma", "--decompress", "--stdout")
}

// Encode encodes a byte slice with LZMA.
func (c *SystemLZMA) Encode(decodedData []byte) ([]byte, error) {
	encodedData, err := extool.Run(c.xzPath, decodedData, "--format=lzma", "-7", "--stdout")
	if err != nil {
		return nil, err
	}

	// xz writes the streaming size marker; patch in the real uncompressed
	// size the way LzmaCompress does.
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(decodedData))); err != nil {
		return nil, err
	}
	copy(encodedData[5:5+8], buf.Bytes())
	return encodedData, nil
}
