package treemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := NewState()
	assert.Equal(t, 0, s.Expanded.Len())
	assert.Equal(t, 0, s.Matched.Len())
	assert.Nil(t, s.Visible)
	assert.False(t, s.HasSelection)
	assert.Equal(t, "", s.Query)
	assert.True(t, IsVisible(s, "/anything"))
}

func TestToggleExpandIsItsOwnInverse(t *testing.T) {
	for _, start := range []PathSet{NewPathSet(), NewPathSet("/a"), NewPathSet("/a", "/b")} {
		s := NewState()
		s.Expanded = start
		twice := ToggleExpand(ToggleExpand(s, "/a"), "/a")
		assert.Equal(t, start.Sorted(), twice.Expanded.Sorted())
	}
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	s := NewState()
	s.Expanded = NewPathSet("/keep")
	before := s.Expanded.Clone()

	_ = ToggleExpand(s, "/x")
	_ = ExpandToPath(s, "/a/b/c")
	_ = Search(s, convertText(t, `{"a": {"b": 1}}`), "b")
	_ = CollapseAll(s)

	assert.Equal(t, before.Sorted(), s.Expanded.Sorted())
}

func TestSelectNode(t *testing.T) {
	s := SelectNode(NewState(), "/missing/path")
	assert.True(t, IsSelected(s, "/missing/path"))
	assert.False(t, IsSelected(s, "/other"))

	s = SelectNode(s, "")
	assert.True(t, IsSelected(s, ""))

	s = ClearSelection(s)
	assert.False(t, IsSelected(s, ""))
	assert.False(t, IsSelected(NewState(), ""))
}

func TestExpandToPath(t *testing.T) {
	s := ExpandToPath(NewState(), "/a/b/c")
	assert.Equal(t, []string{"/a", "/a/b"}, s.Expanded.Sorted())
	assert.False(t, IsExpanded(s, "/a/b/c"))

	s = ExpandToPath(s, "")
	assert.Equal(t, 2, s.Expanded.Len())
}

func TestExpandAllAndCollapseAll(t *testing.T) {
	root := convertText(t, `{"a": {"b": [1]}, "c": 2}`)
	s := ExpandAll(NewState(), root)
	assert.Equal(t, []string{"/a", "/a/b", "/a/b/0", "/c"}, s.Expanded.Sorted())
	assert.False(t, IsExpanded(s, ""))

	same := ExpandAll(s, nil)
	assert.Equal(t, s.Expanded.Sorted(), same.Expanded.Sorted())

	s = CollapseAll(s)
	assert.Equal(t, 0, s.Expanded.Len())
}

func TestSearchState(t *testing.T) {
	root := convertText(t, `{"name": "test", "nested": {"name": "inner"}, "other": 1}`)
	s := NewState()
	s = ToggleExpand(s, "/other")

	s = Search(s, root, "  NAME ")
	assert.Equal(t, "  NAME ", s.Query)
	assert.Equal(t, []string{"/name", "/nested/name"}, s.Matched.Sorted())
	assert.Equal(t, []string{"/name", "/nested", "/nested/name"}, s.Visible.Sorted())
	assert.True(t, IsExpanded(s, "/nested"))
	assert.True(t, IsExpanded(s, "/other"), "search never collapses")
	assert.True(t, IsMatched(s, "/name"))
	assert.False(t, IsMatched(s, "/nested"))
	assert.True(t, IsVisible(s, "/nested"))
	assert.False(t, IsVisible(s, "/other"))

	s = Search(s, root, "   ")
	assert.Equal(t, 0, s.Matched.Len())
	assert.Nil(t, s.Visible)
	assert.True(t, IsVisible(s, "/other"))
	assert.True(t, IsExpanded(s, "/nested"), "clearing keeps expansion")
}

func TestSearchWithoutRoot(t *testing.T) {
	s := Search(NewState(), nil, "x")
	assert.Equal(t, 0, s.Matched.Len())
	require.NotNil(t, s.Visible)
	assert.Equal(t, 0, s.Visible.Len())
}

func TestSearchFunc(t *testing.T) {
	root := convertText(t, `{"a": {"n": 5}, "b": [1, 10]}`)
	big := func(n *Node) bool { return n.PreviewText == "10" || n.PreviewText == "5" }

	s := SearchFunc(NewState(), root, "size > 4", big)
	assert.Equal(t, []string{"/a/n", "/b/1"}, s.Matched.Sorted())
	assert.Equal(t, []string{"/a", "/b"}, s.Expanded.Sorted())

	s = SearchFunc(s, root, "", big)
	assert.Equal(t, 0, s.Matched.Len())
	assert.Nil(t, s.Visible)
}
