package core

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/kvedit/internal/navigator"
	"github.com/oakwood-commons/kvedit/pkg/json5"
)

// target is the container a write at some path lands in, plus the decoded
// last segment of that path.
type target struct {
	parent *json5.Node
	key    string
}

// locate resolves the parent of path against the document. ok is false for
// the root path, which has no parent.
func (e *Editor) locate(path string) (target, bool) {
	tokens := navigator.SplitPath(path)
	if len(tokens) == 0 {
		return target{}, false
	}
	parentPath := ""
	if len(tokens) > 1 {
		parentPath = "/" + strings.Join(tokens[:len(tokens)-1], "/")
	}
	parent, ok := navigator.Resolve(e.doc.parsed.Root, parentPath)
	if !ok {
		return target{}, false
	}
	return target{parent: parent, key: navigator.Unescape(tokens[len(tokens)-1])}, true
}

// GetValue returns the decoded value at path.
func (e *Editor) GetValue(path string) (any, bool) {
	if e.doc == nil {
		return nil, false
	}
	n, ok := navigator.Resolve(e.doc.parsed.Root, path)
	if !ok {
		return nil, false
	}
	return n.Interface(), true
}

// GetNode returns the document node at path.
func (e *Editor) GetNode(path string) (*json5.Node, bool) {
	if e.doc == nil {
		return nil, false
	}
	return navigator.Resolve(e.doc.parsed.Root, path)
}

// SetValue writes value at path. The last segment is a key when the parent
// is an object and a canonical index when it is an array; an index equal to
// the array length appends. The empty path replaces the whole document
// value. It reports false when the parent does not exist or cannot hold the
// value, and an error when value has no JSON5 form.
func (e *Editor) SetValue(path string, value any) (bool, error) {
	if e.doc == nil {
		return false, nil
	}
	node, err := json5.ValueOf(value)
	if err != nil {
		return false, err
	}
	return e.write(path, node)
}

// SetRaw parses text as a JSON5 value and writes it at path, keeping the
// text as written (quotes, comments inside containers, number spelling).
func (e *Editor) SetRaw(path, text string) (bool, error) {
	if e.doc == nil {
		return false, nil
	}
	node, err := json5.ParseValue(text)
	if err != nil {
		return false, err
	}
	return e.write(path, node)
}

func (e *Editor) write(path string, node *json5.Node) (bool, error) {
	before := e.doc.parsed.String()
	if path == "" {
		e.doc.parsed.Root = node
		return e.commit(before, path)
	}
	t, ok := e.locate(path)
	if !ok {
		return false, nil
	}
	switch t.parent.Kind() {
	case json5.KindObject:
		ok = t.parent.Set(t.key, node)
	case json5.KindArray:
		i, isIndex := navigator.CanonicalIndex(t.key)
		switch {
		case !isIndex:
			ok = false
		case i == t.parent.Len():
			ok = t.parent.Append(node)
		default:
			ok = t.parent.SetIndex(i, node)
		}
	default:
		ok = false
	}
	if !ok {
		return false, nil
	}
	return e.commit(before, path)
}

func (e *Editor) commit(before, path string) (bool, error) {
	if err := e.afterEdit(before, "set", path); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteValue removes the member or element at path.
func (e *Editor) DeleteValue(path string) bool {
	if e.doc == nil {
		return false
	}
	t, ok := e.locate(path)
	if !ok {
		return false
	}
	before := e.doc.parsed.String()
	switch t.parent.Kind() {
	case json5.KindObject:
		ok = t.parent.Delete(t.key)
	case json5.KindArray:
		i, isIndex := navigator.CanonicalIndex(t.key)
		ok = isIndex && t.parent.RemoveIndex(i)
	default:
		ok = false
	}
	if !ok {
		return false
	}
	if err := e.afterEdit(before, "delete", path); err != nil {
		e.log.Error(err, "rebuilding tree after delete failed", "path", path)
		return false
	}
	return true
}

// afterEdit marks the document modified and rebuilds the navigation tree. If
// the edited document can no longer be projected (it nests too deep) the
// edit is rolled back to before.
func (e *Editor) afterEdit(before, op, path string) error {
	if err := e.Refresh(); err != nil {
		restored, perr := json5.Parse(before, json5.WithMaxDepth(e.maxDepth))
		if perr != nil {
			return fmt.Errorf("rolling back %s at %q: %w", op, path, perr)
		}
		e.doc.parsed = restored
		if rerr := e.Refresh(); rerr != nil {
			return fmt.Errorf("rolling back %s at %q: %w", op, path, rerr)
		}
		return fmt.Errorf("%s at %q: %w", op, path, err)
	}
	e.doc.modified = true
	e.log.V(1).Info("edited document", "op", op, "path", path)
	return nil
}
