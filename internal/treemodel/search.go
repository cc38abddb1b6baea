package treemodel

import (
	"strings"

	"github.com/oakwood-commons/kvedit/internal/navigator"
)

// MatchFunc decides whether a node matches a search.
type MatchFunc func(*Node) bool

// SearchNodes returns the paths of nodes whose key or path contains query,
// ignoring case and surrounding whitespace. A blank query matches nothing.
func SearchNodes(root *Node, query string) PathSet {
	if root == nil || blank(query) {
		return PathSet{}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	return MatchNodes(root, func(n *Node) bool {
		return strings.Contains(strings.ToLower(n.Key), q) ||
			strings.Contains(strings.ToLower(n.Path), q)
	})
}

// MatchNodes returns the paths of every node for which match is true.
func MatchNodes(root *Node, match MatchFunc) PathSet {
	out := PathSet{}
	if root == nil || match == nil {
		return out
	}
	Walk(root, func(n *Node) bool {
		if match(n) {
			out[n.Path] = struct{}{}
		}
		return true
	})
	return out
}

// ComputeVisiblePaths closes matched under ancestry: every matched path and
// all of its strict ancestors.
func ComputeVisiblePaths(matched PathSet) PathSet {
	out := make(PathSet, len(matched))
	for p := range matched {
		out[p] = struct{}{}
		for _, a := range navigator.AncestorPaths(p) {
			out[a] = struct{}{}
		}
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
