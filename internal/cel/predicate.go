package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/oakwood-commons/kvedit/internal/navigator"
	"github.com/oakwood-commons/kvedit/internal/treemodel"
)

// Variables bound when a predicate runs against a navigation node.
const (
	NodeVariable  = "node"
	ValueVariable = "value"
)

// ValueFunc returns the decoded document value at a path.
type ValueFunc func(path string) (any, bool)

// Predicate is a compiled boolean CEL expression over navigation nodes.
//
// Inside the expression, node is a map with key, path, kind, preview, depth
// and children (the child count); value is the decoded value at node.path;
// _ is the whole document.
type Predicate struct {
	expr  string
	prg   cel.Program
	root  any
	value ValueFunc
	err   error
}

// NewPredicate compiles expr. It must evaluate to a bool (or dyn).
func NewPredicate(expr string, root any, value ValueFunc) (*Predicate, error) {
	env, err := newStandardCELEnv(
		cel.Variable(NodeVariable, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(ValueVariable, cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	prg, ast, err := compile(env, expr)
	if err != nil {
		return nil, err
	}
	out := ast.OutputType()
	if !out.IsExactType(types.BoolType) && !out.IsExactType(types.DynType) {
		return nil, fmt.Errorf("predicate %q returns %s, want bool", expr, typeLabel(out))
	}
	return &Predicate{expr: expr, prg: prg, root: root, value: value}, nil
}

// Expr returns the source expression.
func (p *Predicate) Expr() string { return p.expr }

// Err returns the first evaluation error seen by Match, if any. Nodes whose
// evaluation fails (a missing field, say) simply do not match.
func (p *Predicate) Err() error { return p.err }

// Match reports whether n satisfies the predicate. It has the shape of
// treemodel.MatchFunc.
func (p *Predicate) Match(n *treemodel.Node) bool {
	var value any
	if p.value != nil {
		value, _ = p.value(n.Path)
	}
	result, _, err := p.prg.Eval(map[string]any{
		RootVariable:  p.root,
		NodeVariable:  nodeFields(n),
		ValueVariable: value,
	})
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("evaluating %q at %q: %w", p.expr, n.Path, err)
		}
		return false
	}
	b, ok := result.(types.Bool)
	return ok && bool(b)
}

// MatchFunc adapts the predicate for treemodel.SearchFunc.
func (p *Predicate) MatchFunc() treemodel.MatchFunc {
	return p.Match
}

func nodeFields(n *treemodel.Node) map[string]any {
	return map[string]any{
		"key":      n.Key,
		"path":     n.Path,
		"kind":     n.Kind.String(),
		"preview":  n.PreviewText,
		"depth":    int64(len(navigator.SplitPath(n.Path))),
		"children": int64(len(n.Children)),
	}
}
