// Package treemodel projects a parsed document into an immutable,
// path-addressed navigation tree, indexes it by path, and implements the
// expand/collapse, selection and search state that operates on paths.
package treemodel

import (
	"fmt"

	"github.com/oakwood-commons/kvedit/internal/navigator"
	"github.com/oakwood-commons/kvedit/pkg/json5"
)

// RootKey is the display key of the root node.
const RootKey = "root"

// DefaultMaxDepth is the nesting limit applied by ConvertChecked when no
// explicit limit is given.
const DefaultMaxDepth = 512

// Node is one entry of a navigation tree. Nodes are never modified after
// Convert returns them; a changed document is converted again.
type Node struct {
	Path        string
	Key         string
	Kind        json5.Kind
	Children    []*Node
	PreviewText string
}

// DepthError reports a document nested deeper than the converter allows.
type DepthError struct {
	Path  string
	Limit int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("treemodel: nesting exceeds %d levels at %q", e.Limit, e.Path)
}

// Convert builds the navigation tree for root. It returns nil only when root
// is nil. The walk uses an explicit stack, so deep documents cannot exhaust
// the goroutine stack.
func Convert(root navigator.Source) *Node {
	n, _ := build(root, 0)
	return n
}

// ConvertChecked is Convert with a nesting limit. A maxDepth of zero or less
// selects DefaultMaxDepth.
func ConvertChecked(root navigator.Source, maxDepth int) (*Node, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return build(root, maxDepth)
}

type frame struct {
	node     *Node
	children []navigator.Child
	next     int
	depth    int
}

func newFrame(src navigator.Source, path, key string, depth int) *frame {
	children := src.Children()
	n := &Node{
		Path:        path,
		Key:         key,
		Kind:        src.Kind(),
		PreviewText: src.Preview(),
	}
	if len(children) > 0 {
		n.Children = make([]*Node, 0, len(children))
	}
	return &frame{node: n, children: children, depth: depth}
}

// build converts depth first. A node is attached to its parent only after
// all of its own children have been attached.
func build(root navigator.Source, maxDepth int) (*Node, error) {
	if root == nil {
		return nil, nil
	}
	top := newFrame(root, "", RootKey, 0)
	stack := []*frame{top}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.next == len(f.children) {
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := stack[len(stack)-1].node
				parent.Children = append(parent.Children, f.node)
			}
			continue
		}
		c := f.children[f.next]
		f.next++

		var path string
		if c.IsIndex {
			path = navigator.BuildIndexPath(f.node.Path, c.Index)
		} else {
			path = navigator.BuildPath(f.node.Path, c.Key)
		}
		if maxDepth > 0 && f.depth+1 > maxDepth {
			return nil, &DepthError{Path: path, Limit: maxDepth}
		}
		stack = append(stack, newFrame(c.Node, path, c.DisplayKey(), f.depth+1))
	}
	return top.node, nil
}

// Walk visits every node in document order (parents before children) until
// fn returns false.
func Walk(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			return
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// AllPaths lists every path in the tree in document order, root first.
func AllPaths(root *Node) []string {
	var out []string
	Walk(root, func(n *Node) bool {
		out = append(out, n.Path)
		return true
	})
	return out
}

// FindNodeByPath locates a node by walking from root one segment at a time,
// without an index.
func FindNodeByPath(root *Node, path string) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	if path == "" {
		return root, true
	}
	cur := root
	for _, tok := range navigator.SplitPath(path) {
		var next *Node
		for _, c := range cur.Children {
			if lastToken(c.Path) == tok {
				next = c
				break
			}
		}
		if next == nil {
			if path == "/" {
				return root, true
			}
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func lastToken(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
