package loader

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvedit/pkg/json5"
)

// ImportFormat names a format accepted by Import.
type ImportFormat string

const (
	ImportAuto   ImportFormat = "auto"
	ImportJSON5  ImportFormat = "json5"
	ImportYAML   ImportFormat = "yaml"
	ImportTOML   ImportFormat = "toml"
	ImportNDJSON ImportFormat = "ndjson"
)

var (
	tomlSectionPattern  = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// Import converts structured text into a document node. With ImportAuto
// the format is guessed: JSON and JSON5 first, then multi-document YAML,
// NDJSON, TOML and finally single-document YAML. Multi-document inputs
// become an array with one element per document.
func Import(input string, format ImportFormat) (*json5.Node, error) {
	v, err := ImportData(input, format)
	if err != nil {
		return nil, err
	}
	n, err := json5.ValueOf(v)
	if err != nil {
		return nil, fmt.Errorf("converting imported data: %w", err)
	}
	return n, nil
}

// ImportData is Import without the final conversion to a node.
func ImportData(input string, format ImportFormat) (any, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("empty input")
	}
	switch format {
	case ImportJSON5:
		return importJSON5(trimmed)
	case ImportYAML:
		return importYAML(trimmed)
	case ImportTOML:
		return importTOML(trimmed)
	case ImportNDJSON:
		return importNDJSON(trimmed)
	case ImportAuto, "":
		return importAuto(trimmed)
	default:
		return nil, fmt.Errorf("unknown import format %q", format)
	}
}

func importAuto(input string) (any, error) {
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		if v, err := importJSON5(input); err == nil {
			return v, nil
		}
	}
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return importYAML(input)
	}
	if lines := strings.Split(input, "\n"); len(lines) > 1 && isLikelyNDJSON(lines) {
		return importNDJSON(input)
	}
	if isLikelyTOML(input) {
		return importTOML(input)
	}
	return importYAML(input)
}

func importJSON5(input string) (any, error) {
	n, err := json5.ParseValue(input)
	if err != nil {
		return nil, err
	}
	return n.Interface(), nil
}

// importYAML decodes every document in input. A single document is returned
// as is; several are returned as a slice.
func importYAML(input string) (any, error) {
	var docs []any
	decoder := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if doc != nil {
			docs = append(docs, normalize(doc))
		}
	}
	switch len(docs) {
	case 0:
		return nil, fmt.Errorf("no documents found in YAML input")
	case 1:
		return docs[0], nil
	default:
		return docs, nil
	}
}

// importNDJSON decodes one JSON value per line. Lines that are not JSON are
// kept as plain strings.
func importNDJSON(input string) (any, error) {
	lines := strings.Split(input, "\n")
	results := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, obj)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no data found in input")
	}
	return results, nil
}

func importTOML(input string) (any, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return normalize(data), nil
}

// normalize rewrites decoded values that have no JSON counterpart: YAML maps
// with non-string keys and TOML or YAML timestamps.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case encoding.TextMarshaler:
		b, err := t.MarshalText()
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return v
	}
}

// isLikelyNDJSON reports whether most non-empty lines start a JSON object
// or array. Bare YAML list items ("- name") do not count.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmptyCount++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmptyCount > 1 && jsonCount > nonEmptyCount/2
}

// isLikelyTOML looks for [section] headers, or a majority of key = value
// lines (YAML uses key: value).
func isLikelyTOML(input string) bool {
	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++
		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}
	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}
