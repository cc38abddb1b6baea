package treemodel

import (
	"sort"

	"github.com/oakwood-commons/kvedit/internal/navigator"
)

// PathSet is a set of paths. Transition functions never modify a set they
// were given; they build a new one.
type PathSet map[string]struct{}

// NewPathSet returns a set holding paths.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set is empty.
func (s PathSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Len is the number of paths in the set.
func (s PathSet) Len() int { return len(s) }

// Clone returns a copy that can be changed independently.
func (s PathSet) Clone() PathSet {
	out := make(PathSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// State is the interaction state of a tree view. It only ever refers to
// nodes by path.
//
// Visible is nil when no search is active, meaning every node is shown.
type State struct {
	Expanded     PathSet
	SelectedPath string
	HasSelection bool
	Query        string
	Matched      PathSet
	Visible      PathSet
}

// NewState returns the state for a freshly loaded document: nothing
// expanded, selected or matched.
func NewState() State {
	return State{
		Expanded: PathSet{},
		Matched:  PathSet{},
	}
}

// ToggleExpand flips whether path is expanded.
func ToggleExpand(s State, path string) State {
	expanded := s.Expanded.Clone()
	if expanded.Has(path) {
		delete(expanded, path)
	} else {
		expanded[path] = struct{}{}
	}
	s.Expanded = expanded
	return s
}

// SelectNode makes path the selection. The path is not checked against any
// tree; a stale selection simply matches nothing.
func SelectNode(s State, path string) State {
	s.SelectedPath = path
	s.HasSelection = true
	return s
}

// ClearSelection removes the selection.
func ClearSelection(s State) State {
	s.SelectedPath = ""
	s.HasSelection = false
	return s
}

// ExpandToPath expands every strict ancestor of path so that it can be seen.
// path itself is left as it was.
func ExpandToPath(s State, path string) State {
	expanded := s.Expanded.Clone()
	for _, a := range navigator.AncestorPaths(path) {
		expanded[a] = struct{}{}
	}
	s.Expanded = expanded
	return s
}

// ExpandAll expands every node of root except the root itself, which is
// always shown. A nil root leaves the state unchanged.
func ExpandAll(s State, root *Node) State {
	if root == nil {
		return s
	}
	expanded := PathSet{}
	Walk(root, func(n *Node) bool {
		if n.Path != "" {
			expanded[n.Path] = struct{}{}
		}
		return true
	})
	s.Expanded = expanded
	return s
}

// CollapseAll collapses every node.
func CollapseAll(s State) State {
	s.Expanded = PathSet{}
	return s
}

// Search applies a text query. See SearchFunc for how the state changes; the
// match rule is SearchNodes.
func Search(s State, root *Node, query string) State {
	return apply(s, query, SearchNodes(root, query))
}

// SearchFunc applies a query whose matches are decided by match. A query
// that is empty after trimming clears the search whatever match would say.
// Otherwise Matched is replaced, Visible becomes the matches plus their
// ancestors, and Expanded grows to include those ancestors; it never
// shrinks. Clearing the search leaves Expanded as it was.
func SearchFunc(s State, root *Node, query string, match MatchFunc) State {
	var matched PathSet
	if !blank(query) {
		matched = MatchNodes(root, match)
	}
	return apply(s, query, matched)
}

func apply(s State, query string, matched PathSet) State {
	s.Query = query
	if blank(query) {
		s.Matched = PathSet{}
		s.Visible = nil
		return s
	}
	if matched == nil {
		matched = PathSet{}
	}
	s.Matched = matched
	s.Visible = ComputeVisiblePaths(matched)
	expanded := s.Expanded.Clone()
	for p := range matched {
		for _, a := range navigator.AncestorPaths(p) {
			expanded[a] = struct{}{}
		}
	}
	s.Expanded = expanded
	return s
}

// IsExpanded reports whether path is expanded.
func IsExpanded(s State, path string) bool { return s.Expanded.Has(path) }

// IsSelected reports whether path is the selection.
func IsSelected(s State, path string) bool { return s.HasSelection && s.SelectedPath == path }

// IsMatched reports whether path matched the active search.
func IsMatched(s State, path string) bool { return s.Matched.Has(path) }

// IsVisible reports whether path should be shown. Without an active search
// everything is visible.
func IsVisible(s State, path string) bool {
	return s.Visible == nil || s.Visible.Has(path)
}
