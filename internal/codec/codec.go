// Package codec converts JSON-serializable values to compact URL-safe
// strings and back. The encoding is JSON, raw DEFLATE, then unpadded
// URL-safe base64, chosen so the result survives inside a URL fragment.
package codec

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDecode reports a malformed or corrupted encoded string. All
// decode failures (bad base64, corrupt DEFLATE stream, invalid JSON)
// wrap this sentinel.
var ErrDecode = errors.New("codec: invalid or corrupted payload")

// Compress serializes v to JSON, deflates it, and returns the result as
// unpadded URL-safe base64.
func Compress(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("init deflate: %w", err)
	}
	if _, err := fw.Write(raw); err != nil {
		return "", fmt.Errorf("deflate payload: %w", err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("deflate payload: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress is the exact inverse of Compress: it base64-decodes s,
// inflates the stream, and unmarshals the JSON into out. Padding on the
// input is tolerated. Any malformed input fails with ErrDecode.
func Decompress(s string, out any) error {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}

	fr := flate.NewReader(bytes.NewReader(compressed))
	raw, err := io.ReadAll(fr)
	if err != nil {
		return fmt.Errorf("%w: inflate: %v", ErrDecode, err)
	}
	if err := fr.Close(); err != nil {
		return fmt.Errorf("%w: inflate: %v", ErrDecode, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: json: %v", ErrDecode, err)
	}
	return nil
}
