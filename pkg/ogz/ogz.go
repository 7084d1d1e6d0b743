// Package ogz handles the gzip container maps are shipped in (.ogz files).
// The payload is an uncompressed OCTA buffer; this package never interprets
// it beyond inflating and deflating.
package ogz

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
)

// Decode inflates an .ogz buffer. A payload whose gzip checksum does not
// match is still returned, with gzip.ErrChecksum wrapped in the error, so
// callers can choose to proceed with it the way the game engine does.
func Decode(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		if errors.Is(err, gzip.ErrChecksum) {
			return raw, fmt.Errorf("inflating map: %w", err)
		}
		return nil, fmt.Errorf("inflating map: %w", err)
	}
	return raw, nil
}

// Encode deflates a raw OCTA buffer into an .ogz payload.
func Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("deflating map: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("deflating map: %w", err)
	}
	return buf.Bytes(), nil
}

// FromFile reads and inflates an .ogz file from disk.
func FromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file: %w", err)
	}
	return Decode(data)
}
