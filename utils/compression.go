package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// CompressData brotli-compresses data at the default level
func CompressData(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write to brotli writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close brotli writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressData reverses CompressData
func DecompressData(compressed []byte) ([]byte, error) {
	if len(compressed) == 0 {
		return compressed, nil
	}
	data, err := io.ReadAll(brotli.NewReader(bytes.NewReader(compressed)))
	if err != nil {
		return nil, fmt.Errorf("failed to read from brotli reader: %w", err)
	}
	return data, nil
}

// CompressJSON marshals v and compresses the result
func CompressJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return CompressData(raw)
}

// DecompressJSON decompresses data and unmarshals it into v
func DecompressJSON(data []byte, v any) error {
	raw, err := DecompressData(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
