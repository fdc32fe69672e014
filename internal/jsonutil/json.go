// internal/jsonutil/json.go
package jsonutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// EncodePretty writes v as indented JSON to w.
func EncodePretty(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFile writes v as indented JSON to path, creating or truncating it.
func WriteFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodePretty(f, v); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// MarshalPretty returns v as indented JSON bytes (no trailing newline).
func MarshalPretty(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
