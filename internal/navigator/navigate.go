package navigator

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/kvedit/pkg/json5"
)

// Resolve finds the document node at path. Each segment is read according
// to the container it is applied to: under an object it is a key, even when
// it looks numeric; under an array it must be a canonical index.
func Resolve(root *json5.Node, path string) (*json5.Node, bool) {
	if root == nil {
		return nil, false
	}
	if path == "" {
		return root, true
	}
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	cur := root
	for _, tok := range SplitPath(path) {
		next, ok := Step(cur, Unescape(tok))
		if !ok {
			// "/" is the empty key when there is one, else the root
			if path == "/" {
				return root, true
			}
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Step descends one decoded segment from n.
func Step(n *json5.Node, segment string) (*json5.Node, bool) {
	switch n.Kind() {
	case json5.KindObject:
		return n.Get(segment)
	case json5.KindArray:
		i, ok := CanonicalIndex(segment)
		if !ok {
			return nil, false
		}
		return n.Index(i)
	default:
		return nil, false
	}
}

// Navigate resolves a user-supplied location. It accepts canonical paths
// ("/items/0/name") as well as dotted and bracketed forms ("items[0].name",
// `["a.b"].c`), and reports an error naming the first segment that could not
// be followed.
func Navigate(root *json5.Node, expr string) (*json5.Node, string, error) {
	path, err := ToPath(expr)
	if err != nil {
		return nil, "", err
	}
	if root == nil {
		return nil, path, fmt.Errorf("no document loaded")
	}
	if path == "/" {
		n, ok := Resolve(root, path)
		if !ok {
			return nil, path, fmt.Errorf("nothing at '/'")
		}
		return n, path, nil
	}
	cur := root
	walked := ""
	for _, tok := range SplitPath(path) {
		seg := Unescape(tok)
		next, ok := Step(cur, seg)
		if !ok {
			switch cur.Kind() {
			case json5.KindObject:
				return nil, path, fmt.Errorf("key '%s' not found at '%s'", seg, displayPath(walked))
			case json5.KindArray:
				return nil, path, fmt.Errorf("index '%s' out of range at '%s'", seg, displayPath(walked))
			default:
				return nil, path, fmt.Errorf("cannot descend into %s at '%s'", cur.Kind(), displayPath(walked))
			}
		}
		walked += "/" + tok
		cur = next
	}
	return cur, path, nil
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// ToPath converts a location expression into a canonical path. Inputs that
// start with "/" (or are empty) are already paths and are returned as is.
// Otherwise keys are separated by '.', and brackets hold either an index or
// a quoted key.
func ToPath(expr string) (string, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" || trimmed == "." || trimmed == "_" {
		return "", nil
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "_.")
	trimmed = strings.TrimPrefix(trimmed, "_")

	var segments []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, Escape(current.String()))
			current.Reset()
		}
	}
	for i := 0; i < len(trimmed); i++ {
		ch := trimmed[i]
		switch ch {
		case '.':
			flush()
		case '[':
			flush()
			j := strings.IndexByte(trimmed[i:], ']')
			if j < 0 {
				return "", fmt.Errorf("unterminated '[' in %q", expr)
			}
			inside := strings.TrimSpace(trimmed[i+1 : i+j])
			if q := quotedKey(inside); q != nil {
				segments = append(segments, Escape(*q))
			} else if _, ok := CanonicalIndex(inside); ok {
				segments = append(segments, inside)
			} else {
				return "", fmt.Errorf("invalid bracket segment %q in %q", inside, expr)
			}
			i += j
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	if len(segments) == 0 {
		return "", nil
	}
	return "/" + strings.Join(segments, "/"), nil
}

func quotedKey(s string) *string {
	if len(s) < 2 {
		return nil
	}
	q := s[0]
	if (q != '"' && q != '\'') || s[len(s)-1] != q {
		return nil
	}
	v, err := json5.ParseValue(s)
	if err != nil {
		return nil
	}
	str, ok := v.StringValue()
	if !ok {
		return nil
	}
	return &str
}
