// Package loader reads documents from disk, detecting their text encoding
// and format, and imports data from other formats (YAML, TOML, NDJSON).
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is the syntax a document is written in.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSON5 Format = "json5"
)

// File is a document read from disk.
type File struct {
	Path     string
	Content  string
	Encoding Encoding
	Format   Format
}

// DetectFormat picks the format from the file extension. Anything other
// than .json5 is treated as JSON.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json5") {
		return FormatJSON5
	}
	return FormatJSON
}

// LoadFile reads path and decodes its content.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, enc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &File{
		Path:     path,
		Content:  text,
		Encoding: enc,
		Format:   DetectFormat(path),
	}, nil
}
