package core

import (
	"github.com/oakwood-commons/kvedit/internal/navigator"
	"github.com/oakwood-commons/kvedit/internal/treemodel"
)

// navigation is the projected tree of the open document together with the
// index over it and the user's interaction state. The three are replaced
// together.
type navigation struct {
	tree  *treemodel.Node
	index *treemodel.Index
	state treemodel.State
	// match is the predicate of the active SearchFunc, nil for text search.
	match treemodel.MatchFunc
}

func emptyNavigation() navigation {
	return navigation{index: treemodel.NewIndex(), state: treemodel.NewState()}
}

// reset installs a tree for a newly loaded document.
func (n *navigation) reset(tree *treemodel.Node) {
	n.tree = tree
	n.index.SetRoot(tree)
	n.state = treemodel.NewState()
	n.match = nil
}

// replace installs a rebuilt tree of the same document. The interaction
// state is kept and an active search is run again so that matches refer to
// the new tree.
func (n *navigation) replace(tree *treemodel.Node) {
	n.tree = tree
	n.index.SetRoot(tree)
	switch {
	case n.state.Visible == nil:
	case n.match != nil:
		n.state = treemodel.SearchFunc(n.state, tree, n.state.Query, n.match)
	default:
		n.state = treemodel.Search(n.state, tree, n.state.Query)
	}
}

func (n *navigation) clear() {
	n.tree = nil
	n.index.Clear()
	n.state = treemodel.NewState()
	n.match = nil
}

// Refresh rebuilds the navigation tree from the current document, keeping
// the interaction state.
func (e *Editor) Refresh() error {
	if e.doc == nil {
		return nil
	}
	tree, err := treemodel.ConvertChecked(navigator.Adapt(e.doc.parsed.Root), e.maxDepth)
	if err != nil {
		return err
	}
	e.nav.replace(tree)
	return nil
}

// Tree returns the navigation tree, or nil when no document is open.
func (e *Editor) Tree() *treemodel.Node { return e.nav.tree }

// State returns the current interaction state.
func (e *Editor) State() treemodel.State { return e.nav.state }

// FindByPath looks a navigation node up by path.
func (e *Editor) FindByPath(path string) (*treemodel.Node, bool) {
	return e.nav.index.FindByPath(path)
}

// SelectedNode returns the node under the selection. A selection whose path
// no longer exists reports false.
func (e *Editor) SelectedNode() (*treemodel.Node, bool) {
	if !e.nav.state.HasSelection {
		return nil, false
	}
	return e.nav.index.FindByPath(e.nav.state.SelectedPath)
}

// ToggleExpand flips the expansion of path.
func (e *Editor) ToggleExpand(path string) {
	e.nav.state = treemodel.ToggleExpand(e.nav.state, path)
}

// Select selects path.
func (e *Editor) Select(path string) {
	e.nav.state = treemodel.SelectNode(e.nav.state, path)
}

// ClearSelection drops the selection.
func (e *Editor) ClearSelection() {
	e.nav.state = treemodel.ClearSelection(e.nav.state)
}

// ExpandToPath expands the ancestors of path.
func (e *Editor) ExpandToPath(path string) {
	e.nav.state = treemodel.ExpandToPath(e.nav.state, path)
}

// ExpandAll expands every node.
func (e *Editor) ExpandAll() {
	e.nav.state = treemodel.ExpandAll(e.nav.state, e.nav.tree)
}

// CollapseAll collapses every node.
func (e *Editor) CollapseAll() {
	e.nav.state = treemodel.CollapseAll(e.nav.state)
}

// Search runs a text search over keys and paths.
func (e *Editor) Search(query string) {
	e.nav.state = treemodel.Search(e.nav.state, e.nav.tree, query)
	e.nav.match = nil
}

// SearchFunc runs a search whose matches are decided by match.
func (e *Editor) SearchFunc(query string, match treemodel.MatchFunc) {
	e.nav.state = treemodel.SearchFunc(e.nav.state, e.nav.tree, query, match)
	e.nav.match = match
}
