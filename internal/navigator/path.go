package navigator

import (
	"strconv"
	"strings"
)

// Paths address nodes from the document root as "/"-joined segments. Object
// keys are escaped so that "/" and "~" inside keys never split a segment;
// array positions are written as bare decimal indices. The root is "".

// Segment is one decoded step of a path.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// String renders the segment as an escaped path token.
func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return Escape(s.Key)
}

var (
	escaper   = strings.NewReplacer("~", "~0", "/", "~1")
	unescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// Escape encodes a key for use as a path segment: "~" becomes "~0" and "/"
// becomes "~1".
func Escape(key string) string {
	return escaper.Replace(key)
}

// Unescape reverses Escape.
func Unescape(token string) string {
	return unescaper.Replace(token)
}

// BuildPath appends an object key segment to parent.
func BuildPath(parent, key string) string {
	return normalizeRoot(parent) + "/" + Escape(key)
}

// BuildIndexPath appends an array index segment to parent.
func BuildIndexPath(parent string, index int) string {
	return normalizeRoot(parent) + "/" + strconv.Itoa(index)
}

// JoinPath builds a path from decoded segments.
func JoinPath(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// ParsePath splits a path into decoded segments. Empty segments are
// dropped, so "" and "/" both parse to the root (no segments). A segment is
// an index only when it is the canonical decimal form of a non-negative
// integer: "0" and "12" are indices, "01" and "-1" are keys.
func ParsePath(path string) []Segment {
	var out []Segment
	for _, tok := range strings.Split(path, "/") {
		if tok == "" {
			continue
		}
		out = append(out, classify(Unescape(tok)))
	}
	return out
}

// SplitPath splits a path into raw escaped tokens without dropping empty
// ones, so a key that is the empty string keeps its position. "" yields no
// tokens and "/" yields a single empty token.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

func classify(token string) Segment {
	if i, ok := CanonicalIndex(token); ok {
		return Segment{Key: token, Index: i, IsIndex: true}
	}
	return Segment{Key: token}
}

// CanonicalIndex reports whether token is a non-negative integer written in
// canonical decimal form, and returns its value.
func CanonicalIndex(token string) (int, bool) {
	if token == "" || (len(token) > 1 && token[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return i, true
}

// IsRoot reports whether path denotes the document root.
func IsRoot(path string) bool {
	return path == "" || path == "/"
}

func normalizeRoot(path string) string {
	if path == "/" {
		return ""
	}
	return path
}

// ParentPath returns the path of the parent of path. The root has no
// parent.
func ParentPath(path string) (string, bool) {
	if IsRoot(path) {
		return "", false
	}
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", true
	}
	return path[:i], true
}

// LastSegment returns the decoded final segment of path. The root has no
// last segment.
func LastSegment(path string) (Segment, bool) {
	if IsRoot(path) {
		return Segment{}, false
	}
	tok := path[strings.LastIndexByte(path, '/')+1:]
	return classify(Unescape(tok)), true
}

// IsAncestorOf reports whether b lies strictly below a. The root is an
// ancestor of every non-root path.
func IsAncestorOf(a, b string) bool {
	if IsRoot(b) {
		return false
	}
	if IsRoot(a) {
		return true
	}
	return strings.HasPrefix(b, a+"/")
}

// IsDescendantOf reports whether a lies strictly below b.
func IsDescendantOf(a, b string) bool {
	return IsAncestorOf(b, a)
}

// AncestorPaths lists the strict ancestors of path, shallowest first. The
// root is not included.
func AncestorPaths(path string) []string {
	if IsRoot(path) {
		return nil
	}
	var out []string
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			out = append(out, path[:i])
		}
	}
	return out
}
