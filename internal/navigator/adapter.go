package navigator

import (
	"strconv"
	"unicode/utf8"

	"github.com/oakwood-commons/kvedit/pkg/json5"
)

// PreviewMaxLength is the number of characters of a string value shown in a
// preview before it is cut off with "...".
const PreviewMaxLength = 50

// Source is the read-only view of a document node that the tree converter
// walks. Its kind is fixed when the view is created.
type Source interface {
	Kind() json5.Kind
	Children() []Child
	Preview() string
}

// Child is one entry of a container: an object property (Key) or an array
// element (Index, IsIndex).
type Child struct {
	Key     string
	Index   int
	IsIndex bool
	Node    Source
}

// DisplayKey is the label shown for the child: the raw key, or "[i]".
func (c Child) DisplayKey() string {
	if c.IsIndex {
		return FormatIndex(c.Index)
	}
	return c.Key
}

// FormatIndex renders an array position as a display label.
func FormatIndex(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// Adapt wraps a parsed node. A nil node yields a nil Source.
func Adapt(n *json5.Node) Source {
	if n == nil {
		return nil
	}
	return adapter{node: n, kind: n.Kind()}
}

// Unwrap returns the document node behind a Source created by Adapt.
func Unwrap(s Source) (*json5.Node, bool) {
	a, ok := s.(adapter)
	if !ok {
		return nil, false
	}
	return a.node, true
}

type adapter struct {
	node *json5.Node
	kind json5.Kind
}

func (a adapter) Kind() json5.Kind { return a.kind }

func (a adapter) Children() []Child {
	switch a.kind {
	case json5.KindObject:
		// a repeated key is shown once, at its last member, which is the one
		// reads and writes resolve to
		members := a.node.Members()
		last := make(map[string]int, len(members))
		for i, m := range members {
			last[m.Key()] = i
		}
		out := make([]Child, 0, len(last))
		for i, m := range members {
			if last[m.Key()] != i {
				continue
			}
			out = append(out, Child{Key: m.Key(), Node: Adapt(m.Value)})
		}
		return out
	case json5.KindArray:
		elems := a.node.Elements()
		out := make([]Child, len(elems))
		for i, e := range elems {
			out[i] = Child{Key: strconv.Itoa(i), Index: i, IsIndex: true, Node: Adapt(e.Value)}
		}
		return out
	default:
		return nil
	}
}

func (a adapter) Preview() string {
	return Preview(a.node)
}

// Preview renders a short, non-recursive summary of a node: "{N}" and "[N]"
// for containers, the quoted decoded string cut to PreviewMaxLength
// characters, the number or boolean literal, or "null".
func Preview(n *json5.Node) string {
	switch n.Kind() {
	case json5.KindObject:
		return "{" + strconv.Itoa(n.Len()) + "}"
	case json5.KindArray:
		return "[" + strconv.Itoa(n.Len()) + "]"
	case json5.KindString:
		s, _ := n.StringValue()
		return `"` + truncate(s, PreviewMaxLength) + `"`
	case json5.KindNumber:
		f, _ := n.NumberValue()
		return json5.FormatNumber(f)
	case json5.KindBoolean:
		b, _ := n.BoolValue()
		return strconv.FormatBool(b)
	case json5.KindNull:
		return "null"
	default:
		return ""
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	i, count := 0, 0
	for i = range s {
		if count == limit {
			break
		}
		count++
	}
	return s[:i] + "..."
}

// GetProperty returns the decoded value of a named property of an object
// node.
func GetProperty(n *json5.Node, key string) (any, bool) {
	v, ok := n.Get(key)
	if !ok {
		return nil, false
	}
	return v.Interface(), true
}

// SetProperty writes a named property on an object node. Existing members
// keep their comments and spacing; new members are appended in the style of
// their siblings. It reports false when n is not an object.
func SetProperty(n *json5.Node, key string, value any) bool {
	if n.Kind() != json5.KindObject {
		return false
	}
	v, err := json5.ValueOf(value)
	if err != nil {
		return false
	}
	return n.Set(key, v)
}

// Serialize writes a node back to source text.
func Serialize(n *json5.Node) string {
	return n.String()
}
