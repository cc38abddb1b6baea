package json5

import (
	"strings"
)

// Document is a parsed JSON5 text: a single root value plus the whitespace
// and comments around it.
type Document struct {
	Leading  string
	Root     *Node
	Trailing string
}

// String serializes the document back to source text.
func (d *Document) String() string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(d.Leading)
	if d.Root != nil {
		d.Root.writeTo(&b)
	}
	b.WriteString(d.Trailing)
	return b.String()
}

// Node is a JSON5 value in a concrete syntax tree. Scalars keep their source
// token so untouched values serialize byte-for-byte; containers keep the
// trivia (whitespace and comments) between their children.
//
// Nodes are mutable in place. A Node must not be shared between two parents.
type Node struct {
	kind Kind
	raw  string
	str  string

	members       []*Member
	elems         []*Element
	trailingComma bool
	closing       string
}

// Member is one property of an object node.
type Member struct {
	Leading     string
	RawKey      string
	BeforeColon string
	AfterColon  string
	Value       *Node
	Trailing    string

	key string
}

// Key returns the decoded property name.
func (m *Member) Key() string { return m.key }

// Element is one entry of an array node.
type Element struct {
	Leading  string
	Value    *Node
	Trailing string
}

// Kind reports the node's kind. A nil node reports KindInvalid.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindInvalid
	}
	return n.kind
}

// Raw returns the source token of a scalar node. Containers return "".
func (n *Node) Raw() string {
	if n == nil {
		return ""
	}
	return n.raw
}

// Len returns the number of members or elements of a container.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case KindObject:
		return len(n.members)
	case KindArray:
		return len(n.elems)
	default:
		return 0
	}
}

// Members returns the members of an object in declaration order.
// The returned slice must not be modified.
func (n *Node) Members() []*Member {
	if n.Kind() != KindObject {
		return nil
	}
	return n.members
}

// Elements returns the elements of an array in index order.
// The returned slice must not be modified.
func (n *Node) Elements() []*Element {
	if n.Kind() != KindArray {
		return nil
	}
	return n.elems
}

// TrailingComma reports whether the container ends with a trailing comma.
func (n *Node) TrailingComma() bool {
	return n != nil && n.trailingComma
}

// Get returns the value of the named property. With duplicate keys the last
// declaration wins, matching how JSON5 values decode.
func (n *Node) Get(key string) (*Node, bool) {
	if m := n.lookup(key); m != nil {
		return m.Value, true
	}
	return nil, false
}

// Index returns the i-th element of an array.
func (n *Node) Index(i int) (*Node, bool) {
	if n.Kind() != KindArray || i < 0 || i >= len(n.elems) {
		return nil, false
	}
	return n.elems[i].Value, true
}

// StringValue returns the decoded value of a string node.
func (n *Node) StringValue() (string, bool) {
	if n.Kind() != KindString {
		return "", false
	}
	return n.str, true
}

// BoolValue returns the value of a boolean node.
func (n *Node) BoolValue() (bool, bool) {
	if n.Kind() != KindBoolean {
		return false, false
	}
	return n.raw == "true", true
}

// NumberValue returns the value of a number node, including the JSON5
// forms Infinity, NaN and hexadecimal integers.
func (n *Node) NumberValue() (float64, bool) {
	if n.Kind() != KindNumber {
		return 0, false
	}
	return parseNumber(n.raw), true
}

// String serializes the node back to source text.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n *Node) writeTo(b *strings.Builder) {
	switch n.kind {
	case KindObject:
		b.WriteByte('{')
		for i, m := range n.members {
			b.WriteString(m.Leading)
			b.WriteString(m.RawKey)
			b.WriteString(m.BeforeColon)
			b.WriteByte(':')
			b.WriteString(m.AfterColon)
			m.Value.writeTo(b)
			b.WriteString(m.Trailing)
			if i < len(n.members)-1 || n.trailingComma {
				b.WriteByte(',')
			}
		}
		b.WriteString(n.closing)
		b.WriteByte('}')
	case KindArray:
		b.WriteByte('[')
		for i, e := range n.elems {
			b.WriteString(e.Leading)
			e.Value.writeTo(b)
			b.WriteString(e.Trailing)
			if i < len(n.elems)-1 || n.trailingComma {
				b.WriteByte(',')
			}
		}
		b.WriteString(n.closing)
		b.WriteByte(']')
	default:
		b.WriteString(n.raw)
	}
}

func (n *Node) lookup(key string) *Member {
	if n.Kind() != KindObject {
		return nil
	}
	for i := len(n.members) - 1; i >= 0; i-- {
		if n.members[i].key == key {
			return n.members[i]
		}
	}
	return nil
}

// Set assigns value to the named property of an object node. An existing
// property keeps its key, comments and spacing and only its value node is
// replaced; a new property is appended using the indentation and separator
// style of its siblings. Set reports false when n is not an object.
func (n *Node) Set(key string, value *Node) bool {
	if n.Kind() != KindObject || value == nil {
		return false
	}
	if m := n.lookup(key); m != nil {
		m.Value = restyle(m.Value, value)
		return true
	}
	m := &Member{
		RawKey: quote(key, '"'),
		key:    key,
		Value:  value,
	}
	if len(n.members) == 0 {
		m.AfterColon = " "
		m.Leading, n.closing = firstChildLayout(n.closing)
	} else {
		last := n.members[len(n.members)-1]
		m.BeforeColon = whitespaceOr(last.BeforeColon, "")
		m.AfterColon = whitespaceOr(last.AfterColon, " ")
		prev := last.Leading
		if len(n.members) == 1 && prev == "" && m.AfterColon != "" {
			// {"a": 1} spaces its colon, so space the new comma too.
			prev = " "
		}
		m.Leading, n.closing = nextChildLayout(prev, n.closing)
	}
	n.members = append(n.members, m)
	return true
}

// Delete removes every property with the given key. It reports whether
// anything was removed.
func (n *Node) Delete(key string) bool {
	if n.Kind() != KindObject {
		return false
	}
	kept := n.members[:0]
	removed := false
	for _, m := range n.members {
		if m.key == key {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(n.members); i++ {
		n.members[i] = nil
	}
	n.members = kept
	if len(n.members) == 0 {
		n.trailingComma = false
	}
	return removed
}

// SetIndex replaces the i-th element of an array, keeping the element's
// surrounding trivia.
func (n *Node) SetIndex(i int, value *Node) bool {
	if n.Kind() != KindArray || value == nil || i < 0 || i >= len(n.elems) {
		return false
	}
	n.elems[i].Value = restyle(n.elems[i].Value, value)
	return true
}

// Append adds an element to the end of an array.
func (n *Node) Append(value *Node) bool {
	if n.Kind() != KindArray || value == nil {
		return false
	}
	e := &Element{Value: value}
	if len(n.elems) == 0 {
		e.Leading, n.closing = firstChildLayout(n.closing)
	} else {
		prev := n.elems[len(n.elems)-1].Leading
		if len(n.elems) == 1 && prev == "" {
			// [1] has no separator to copy; use the ", " form.
			prev = " "
		}
		e.Leading, n.closing = nextChildLayout(prev, n.closing)
	}
	n.elems = append(n.elems, e)
	return true
}

// RemoveIndex removes the i-th element of an array.
func (n *Node) RemoveIndex(i int) bool {
	if n.Kind() != KindArray || i < 0 || i >= len(n.elems) {
		return false
	}
	n.elems = append(n.elems[:i], n.elems[i+1:]...)
	if len(n.elems) == 0 {
		n.trailingComma = false
	}
	return true
}

// restyle carries the quote style of a replaced string over to its
// replacement so edits do not flip 'single' quotes to "double".
func restyle(old, value *Node) *Node {
	if old.Kind() != KindString || value.Kind() != KindString {
		return value
	}
	if len(old.raw) > 0 && old.raw[0] == '\'' && len(value.raw) > 0 && value.raw[0] == '"' {
		value.raw = quote(value.str, '\'')
	}
	return value
}

// firstChildLayout picks the leading trivia for the first child of an
// empty container whose inner trivia is closing.
func firstChildLayout(closing string) (leading, rest string) {
	nl := strings.LastIndex(closing, "\n")
	if nl < 0 {
		if isWhitespace(closing) {
			return closing, closing
		}
		return closing + " ", ""
	}
	br := lineBreak(closing, nl)
	start := nl + 1 - len(br)
	indent := closing[nl+1:]
	if !isWhitespace(indent) {
		indent = ""
	}
	return closing[:start] + br + indent + "  ", closing[start:]
}

// nextChildLayout picks the leading trivia for a child appended after a
// sibling whose leading trivia is prev. Comments in closing that follow the
// last child stay on its line; the closing bracket keeps its own line.
func nextChildLayout(prev, closing string) (leading, rest string) {
	sep := childSeparator(prev)
	nl := strings.LastIndex(closing, "\n")
	if nl < 0 {
		if isWhitespace(closing) {
			return sep, closing
		}
		return closing + sep, ""
	}
	br := lineBreak(closing, nl)
	start := nl + 1 - len(br)
	head, rest := closing[:start], closing[start:]
	if strings.HasPrefix(sep, "\n") || strings.HasPrefix(sep, "\r\n") {
		return head + sep, rest
	}
	if endsInLineComment(head) {
		return head + br + strings.TrimLeft(sep, " \t"), rest
	}
	return head + sep, rest
}

func endsInLineComment(s string) bool {
	line := s[strings.LastIndex(s, "\n")+1:]
	return strings.Contains(line, "//")
}

// childSeparator derives the whitespace that precedes a child from the
// leading trivia of a sibling: a line break plus indentation, or the inline
// spacing.
func childSeparator(prev string) string {
	nl := strings.LastIndex(prev, "\n")
	if nl < 0 {
		if isWhitespace(prev) {
			return prev
		}
		return " "
	}
	indent := prev[nl+1:]
	if !isWhitespace(indent) {
		indent = ""
	}
	return lineBreak(prev, nl) + indent
}

// lineBreak returns the line terminator ending at index nl ("\n" or "\r\n").
func lineBreak(s string, nl int) string {
	if nl > 0 && s[nl-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

func whitespaceOr(s, fallback string) string {
	if isWhitespace(s) {
		return s
	}
	return fallback
}

func isWhitespace(s string) bool {
	for _, r := range s {
		if !isSpace(r) {
			return false
		}
	}
	return true
}
