package treemodel

// Index maps paths to the nodes of one navigation tree. It is rebuilt from
// scratch whenever the root changes and never patched.
type Index struct {
	root   *Node
	byPath map[string]*Node
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byPath: map[string]*Node{}}
}

// SetRoot drops every entry and indexes the tree under root. A nil root
// leaves the index empty.
func (x *Index) SetRoot(root *Node) {
	x.byPath = make(map[string]*Node, len(x.byPath))
	x.root = root
	Walk(root, func(n *Node) bool {
		x.byPath[n.Path] = n
		return true
	})
}

// FindByPath returns the node at path. "" and "/" resolve to the root
// unless "/" names the child under the empty key. Unknown paths are
// reported with ok == false.
func (x *Index) FindByPath(path string) (*Node, bool) {
	if x.root == nil {
		return nil, false
	}
	if path == "" {
		return x.root, true
	}
	if n, ok := x.byPath[path]; ok {
		return n, true
	}
	if path == "/" {
		return x.root, true
	}
	return nil, false
}

// Clear empties the index and forgets the root.
func (x *Index) Clear() {
	x.root = nil
	x.byPath = map[string]*Node{}
}

// Root returns the indexed tree, or nil.
func (x *Index) Root() *Node { return x.root }

// Len reports how many nodes are indexed.
func (x *Index) Len() int { return len(x.byPath) }
