package compression

import (
	"encoding/base64"
	"fmt"
)

// FormatBinaryGzip is the only frame format produced.
const FormatBinaryGzip = "binary_gzip"

// Frame is a compressed payload ready for JSON transmission.
type Frame struct {
	Format           string `json:"format"`            // "binary_gzip"
	Data             string `json:"data"`              // Base64-encoded compressed payload
	Size             int    `json:"size"`              // Compressed size in bytes
	UncompressedSize int    `json:"uncompressed_size"` // Uncompressed size in bytes
}

// FormatCompressed wraps an already compressed payload for JSON transmission.
func FormatCompressed(compressed []byte, uncompressedSize int) *Frame {
	return &Frame{
		Format:           FormatBinaryGzip,
		Data:             base64.StdEncoding.EncodeToString(compressed),
		Size:             len(compressed),
		UncompressedSize: uncompressedSize,
	}
}

// Encode compresses data when it is at least threshold bytes long. It returns
// nil when the payload should be sent as is. A threshold <= 0 disables
// compression.
func Encode(data []byte, threshold int) (*Frame, error) {
	if threshold <= 0 || len(data) < threshold {
		return nil, nil
	}
	compressed, err := CompressPayload(data)
	if err != nil {
		return nil, err
	}
	if len(compressed) >= len(data) {
		return nil, nil
	}
	return FormatCompressed(compressed, len(data)), nil
}

// Decode returns the original payload carried by f.
func (f *Frame) Decode() ([]byte, error) {
	if f.Format != FormatBinaryGzip {
		return nil, fmt.Errorf("unsupported frame format %q", f.Format)
	}
	compressed, err := base64.StdEncoding.DecodeString(f.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame data: %w", err)
	}
	return DecompressPayload(compressed)
}
