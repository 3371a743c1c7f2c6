package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an on-disk encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from a file extension. Anything other than
// .yaml or .yml is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Document Serialization API
// =============================================================================

// Marshal encodes d as indented JSON.
func Marshal(d Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, d, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes v as JSON to w. v is a Document or a Wrapper.
func Write(v any, w io.Writer) error {
	return encode(w, v, FormatJSON)
}

// WriteFile writes v to path in the format chosen by [FormatForPath].
// v is a Document or a Wrapper.
func WriteFile(v any, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return encode(f, v, FormatForPath(path))
}

// Read decodes a JSON document or wrapper from r.
func Read(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read: %w", err)
	}
	return ReadAny(data, FormatJSON)
}

// ReadFile reads a document or wrapper from path in the format chosen by
// [FormatForPath].
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	return ReadAny(data, FormatForPath(path))
}

// ReadAny decodes data as either a bare Document or an export Wrapper, in
// which case the first wrapped file is returned.
func ReadAny(data []byte, f Format) (Document, error) {
	var w Wrapper
	if err := decode(data, &w, f); err != nil {
		return Document{}, err
	}
	if len(w.Files) > 0 {
		return Unwrap(w)
	}
	var d Document
	if err := decode(data, &d, f); err != nil {
		return Document{}, err
	}
	return d, nil
}

// Hash returns the SHA-256 of the canonical JSON encoding of d.
// Documents that export identically hash identically.
func Hash(d Document) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func encode(w io.Writer, v any, f Format) error {
	if f == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func decode(data []byte, v any, f Format) error {
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(data, v)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
