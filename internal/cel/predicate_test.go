package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvedit/internal/navigator"
	"github.com/oakwood-commons/kvedit/internal/treemodel"
	"github.com/oakwood-commons/kvedit/pkg/json5"
)

func fixture(t *testing.T) (*json5.Node, *treemodel.Node) {
	t.Helper()
	doc, err := json5.Parse(`{"name": "api", "replicas": 3, "ports": [80, 443], "meta": {"name": "inner", "debug": true}}`)
	require.NoError(t, err)
	return doc.Root, treemodel.Convert(navigator.Adapt(doc.Root))
}

func predicateFor(t *testing.T, expr string) (*Predicate, *treemodel.Node) {
	t.Helper()
	root, tree := fixture(t)
	p, err := NewPredicate(expr, root.Interface(), func(path string) (any, bool) {
		n, ok := navigator.Resolve(root, path)
		if !ok {
			return nil, false
		}
		return n.Interface(), true
	})
	require.NoError(t, err)
	return p, tree
}

func TestPredicateMatches(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{name: "by key", expr: `node.key == "name"`, want: []string{"/meta/name", "/name"}},
		{name: "by kind", expr: `node.kind == "number"`, want: []string{"/ports/0", "/ports/1", "/replicas"}},
		{name: "by depth", expr: `node.depth == 2 && node.kind != "number"`, want: []string{"/meta/debug", "/meta/name"}},
		{name: "by value", expr: `node.kind == "number" && value > 100`, want: []string{"/ports/1"}},
		{name: "containers", expr: `node.children > 1 && node.path != ""`, want: []string{"/meta", "/ports"}},
		{name: "document context", expr: `node.kind == "number" && value == _.replicas`, want: []string{"/replicas"}},
		{name: "preview text", expr: `node.preview.contains("inner")`, want: []string{"/meta/name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, tree := predicateFor(t, tt.expr)
			got := treemodel.MatchNodes(tree, p.MatchFunc())
			assert.Equal(t, tt.want, got.Sorted())
			assert.Equal(t, tt.expr, p.Expr())
		})
	}
}

func TestPredicateEvaluationErrorsDoNotMatch(t *testing.T) {
	p, tree := predicateFor(t, `value.debug == true`)
	got := treemodel.MatchNodes(tree, p.MatchFunc())
	assert.Equal(t, []string{"/meta"}, got.Sorted())
	require.Error(t, p.Err())
}

func TestPredicateCompileErrors(t *testing.T) {
	_, err := NewPredicate(`node.key ==`, nil, nil)
	require.Error(t, err)

	_, err = NewPredicate(`"text"`, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want bool")
}

func TestPredicateFeedsSearchState(t *testing.T) {
	p, tree := predicateFor(t, `node.key == "debug"`)
	s := treemodel.SearchFunc(treemodel.NewState(), tree, p.Expr(), p.MatchFunc())
	assert.Equal(t, []string{"/meta/debug"}, s.Matched.Sorted())
	assert.True(t, s.Visible.Has("/meta"))
	assert.False(t, s.Visible.Has("/name"))
}
