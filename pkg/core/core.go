// Package core is the editing engine behind kvedit. An Editor owns two
// pieces of state that always change together: the open document (text,
// parsed tree, encoding, modified flag) and its navigation state (the
// projected tree, the path index and the interaction state).
package core

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvedit/internal/cel"
	"github.com/oakwood-commons/kvedit/internal/treemodel"
	"github.com/oakwood-commons/kvedit/pkg/logger"
	"github.com/oakwood-commons/kvedit/pkg/persist"
)

// Evaluator evaluates expressions against a decoded document.
type Evaluator interface {
	Evaluate(expr string, root any) (any, error)
}

// Editor edits one document at a time. It is not safe for concurrent use.
type Editor struct {
	log       logr.Logger
	maxDepth  int
	store     *persist.Store
	evaluator Evaluator

	doc *document
	nav navigation
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used for editor events.
func WithLogger(lgr logr.Logger) Option {
	return func(e *Editor) {
		e.log = lgr
	}
}

// WithMaxDepth bounds container nesting, both when parsing and when building
// the navigation tree.
func WithMaxDepth(depth int) Option {
	return func(e *Editor) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithStore sets the persistence store used by Save, SaveAs and Autosave.
func WithStore(s *persist.Store) Option {
	return func(e *Editor) {
		e.store = s
	}
}

// WithEvaluator sets a custom expression evaluator for Query.
func WithEvaluator(ev Evaluator) Option {
	return func(e *Editor) {
		e.evaluator = ev
	}
}

// New creates an Editor with no document loaded.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		log:      *logger.GetNoopLogger(),
		maxDepth: treemodel.DefaultMaxDepth,
		nav:      emptyNavigation(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = persist.NewStore()
	}
	if e.evaluator == nil {
		ev, err := cel.NewEvaluator()
		if err != nil {
			return nil, err
		}
		e.evaluator = ev
	}
	return e, nil
}

// Store returns the persistence store.
func (e *Editor) Store() *persist.Store {
	return e.store
}

// Query evaluates expr against the decoded document, bound as "_".
func (e *Editor) Query(expr string) (any, error) {
	if e.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	return e.evaluator.Evaluate(expr, e.doc.parsed.Root.Interface())
}
