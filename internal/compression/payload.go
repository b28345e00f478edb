// Package compression frames large designer payloads for transmission.
package compression

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"log"
)

const (
	// PayloadMagic opens every compressed payload.
	PayloadMagic = "VIEW"
	// PayloadVersion is the current frame layout version.
	PayloadVersion = 1
	// DefaultGzipLevel balances size and speed for per-frame views.
	DefaultGzipLevel = 6

	headerSize = 4 + 1 + 4
)

// CompressPayload gzips data behind a small header:
// magic (4 bytes), version (1 byte), uncompressed length (uint32 little endian).
func CompressPayload(data []byte) ([]byte, error) {
	if uint64(len(data)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("payload too large: %d bytes", len(data))
	}

	var buf bytes.Buffer
	buf.WriteString(PayloadMagic)
	buf.WriteByte(PayloadVersion)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(data))); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	writer, err := gzip.NewWriterLevel(&buf, DefaultGzipLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			log.Printf("Warning: failed to close gzip writer: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to write to gzip: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// DecompressPayload reverses CompressPayload.
func DecompressPayload(frame []byte) ([]byte, error) {
	if len(frame) < headerSize {
		return nil, fmt.Errorf("payload too short: %d bytes", len(frame))
	}
	if string(frame[:4]) != PayloadMagic {
		return nil, fmt.Errorf("invalid payload magic %q", frame[:4])
	}
	if frame[4] != PayloadVersion {
		return nil, fmt.Errorf("unsupported payload version %d", frame[4])
	}
	size := binary.LittleEndian.Uint32(frame[5:headerSize])

	reader, err := gzip.NewReader(bytes.NewReader(frame[headerSize:]))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			log.Printf("Warning: failed to close gzip reader: %v", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(reader, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %w", err)
	}
	if uint32(len(data)) != size {
		return nil, fmt.Errorf("payload size mismatch: header says %d, got %d", size, len(data))
	}
	return data, nil
}
