package core

import (
	"fmt"

	"github.com/oakwood-commons/kvedit/internal/navigator"
	"github.com/oakwood-commons/kvedit/internal/treemodel"
	"github.com/oakwood-commons/kvedit/pkg/json5"
	"github.com/oakwood-commons/kvedit/pkg/loader"
)

// document is the open file. path is empty for a document that was never
// saved.
type document struct {
	path     string
	encoding loader.Encoding
	format   loader.Format
	original string
	parsed   *json5.Document
	modified bool
}

// Open replaces the current document with content. On a parse error the
// previous document and navigation state are left untouched and the error is
// a *json5.SyntaxError. A successful open starts from a fresh interaction
// state.
func (e *Editor) Open(path, content string, enc loader.Encoding) error {
	if enc == "" {
		enc = loader.UTF8
	}
	parsed, tree, err := e.parse(content)
	if err != nil {
		e.log.V(1).Info("open failed", "path", path, "error", err.Error())
		return err
	}
	e.doc = &document{
		path:     path,
		encoding: enc,
		format:   loader.DetectFormat(path),
		original: content,
		parsed:   parsed,
	}
	e.nav.reset(tree)
	e.log.V(1).Info("opened document", "path", path, "encoding", enc, "nodes", e.nav.index.Len())
	return nil
}

// OpenFile reads path from disk and opens it.
func (e *Editor) OpenFile(path string) error {
	f, err := loader.LoadFile(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return e.Open(f.Path, f.Content, f.Encoding)
}

// Reparse replaces the document text while keeping its path and encoding,
// as after a raw text edit. On success the interaction state starts fresh;
// on failure nothing changes.
func (e *Editor) Reparse(content string) error {
	if e.doc == nil {
		return e.Open("", content, loader.UTF8)
	}
	parsed, tree, err := e.parse(content)
	if err != nil {
		return err
	}
	e.doc.parsed = parsed
	e.doc.modified = content != e.doc.original
	e.nav.reset(tree)
	return nil
}

// Close drops the document and its navigation state.
func (e *Editor) Close() {
	e.doc = nil
	e.nav.clear()
}

func (e *Editor) parse(content string) (*json5.Document, *treemodel.Node, error) {
	parsed, err := json5.Parse(content, json5.WithMaxDepth(e.maxDepth))
	if err != nil {
		return nil, nil, err
	}
	tree, err := treemodel.ConvertChecked(navigator.Adapt(parsed.Root), e.maxDepth)
	if err != nil {
		return nil, nil, err
	}
	return parsed, tree, nil
}

// Loaded reports whether a document is open.
func (e *Editor) Loaded() bool { return e.doc != nil }

// Path returns the file path of the document, empty when unsaved or closed.
func (e *Editor) Path() string {
	if e.doc == nil {
		return ""
	}
	return e.doc.path
}

// Encoding returns the text encoding the document is saved in.
func (e *Editor) Encoding() loader.Encoding {
	if e.doc == nil {
		return ""
	}
	return e.doc.encoding
}

// Format returns the document format derived from its path.
func (e *Editor) Format() loader.Format {
	if e.doc == nil {
		return ""
	}
	return e.doc.format
}

// Modified reports whether the document differs from what was opened or
// last saved.
func (e *Editor) Modified() bool {
	return e.doc != nil && e.doc.modified
}

// Document returns the parsed document, or nil when none is open.
func (e *Editor) Document() *json5.Document {
	if e.doc == nil {
		return nil
	}
	return e.doc.parsed
}

// Serialize returns the current document text.
func (e *Editor) Serialize() string {
	if e.doc == nil {
		return ""
	}
	return e.doc.parsed.String()
}

// MarkSaved records the current text as the saved state.
func (e *Editor) MarkSaved() {
	if e.doc == nil {
		return
	}
	e.doc.original = e.doc.parsed.String()
	e.doc.modified = false
}
