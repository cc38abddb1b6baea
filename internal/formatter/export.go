package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/oakwood-commons/kvedit/pkg/json5"
)

// Export formats accepted by Export.
const (
	ExportYAML    = "yaml"
	ExportTOML    = "toml"
	ExportJSON    = "json"
	ExportMermaid = "mermaid"
)

// ExportFormats lists the values accepted by Export.
var ExportFormats = []string{ExportYAML, ExportTOML, ExportJSON, ExportMermaid}

// ValidateExportFormat returns an error if Export does not know format.
func ValidateExportFormat(format string) error {
	if format == "yml" {
		return nil
	}
	for _, valid := range ExportFormats {
		if format == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid export format %q: valid values are %s", format, strings.Join(ExportFormats, ", "))
}

// Export renders a document value in another format.
func Export(n *json5.Node, format string, indent int) (string, error) {
	if err := ValidateExportFormat(format); err != nil {
		return "", err
	}
	switch format {
	case ExportYAML, "yml":
		return FormatYAML(n, YAMLFormatOptions{Indent: indent})
	case ExportTOML:
		return FormatTOML(n)
	case ExportJSON:
		return FormatJSON(n, indent)
	default:
		return FormatAsMermaid(n, MermaidOptions{}), nil
	}
}

// FormatTOML renders an object document as TOML. TOML has no null, so null
// members are left out; a null array element is an error.
func FormatTOML(n *json5.Node) (string, error) {
	if n.Kind() != json5.KindObject {
		return "", fmt.Errorf("toml export needs an object at the top level, got %s", n.Kind())
	}
	data, err := dropNulls(n.Interface())
	if err != nil {
		return "", err
	}
	b, err := toml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal toml: %w", err)
	}
	return string(b), nil
}

func dropNulls(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			clean, err := dropNulls(child)
			if err != nil {
				return nil, err
			}
			t[k] = clean
		}
		return t, nil
	case []any:
		for i, child := range t {
			if child == nil {
				return nil, fmt.Errorf("toml cannot represent null at index %d", i)
			}
			clean, err := dropNulls(child)
			if err != nil {
				return nil, err
			}
			t[i] = clean
		}
		return t, nil
	default:
		return v, nil
	}
}

// FormatJSON renders a document value as strict JSON in source key order.
// Comments are dropped, hexadecimal numbers become decimal and duplicate
// keys are kept as written. Infinity and NaN have no JSON form.
func FormatJSON(n *json5.Node, indent int) (string, error) {
	if n == nil {
		return "", fmt.Errorf("no document")
	}
	if indent <= 0 {
		indent = 2
	}
	var b strings.Builder
	if err := writeJSON(&b, n, strings.Repeat(" ", indent), 0); err != nil {
		return "", err
	}
	b.WriteByte('\n')
	return b.String(), nil
}

func writeJSON(b *strings.Builder, n *json5.Node, unit string, level int) error {
	pad := strings.Repeat(unit, level+1)
	switch n.Kind() {
	case json5.KindObject:
		if n.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteString("{\n")
		for i, m := range n.Members() {
			b.WriteString(pad)
			key, _ := jsonScalar(m.Key())
			b.WriteString(key)
			b.WriteString(": ")
			if err := writeJSON(b, m.Value, unit, level+1); err != nil {
				return err
			}
			if i < n.Len()-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(unit, level) + "}")
	case json5.KindArray:
		if n.Len() == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		for i, e := range n.Elements() {
			b.WriteString(pad)
			if err := writeJSON(b, e.Value, unit, level+1); err != nil {
				return err
			}
			if i < n.Len()-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(unit, level) + "]")
	default:
		s, err := jsonScalar(n.Interface())
		if err != nil {
			return fmt.Errorf("value %s: %w", n.Raw(), err)
		}
		b.WriteString(s)
	}
	return nil
}

func jsonScalar(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
