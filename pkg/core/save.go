package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakwood-commons/kvedit/pkg/loader"
	"github.com/oakwood-commons/kvedit/pkg/logger"
	"github.com/oakwood-commons/kvedit/pkg/persist"
)

// ErrNoPath is returned by Save for a document that was never saved to or
// opened from a file.
var ErrNoPath = errors.New("document has no file path, use save as")

func (e *Editor) encoded() ([]byte, error) {
	data, err := loader.Encode(e.Serialize(), e.doc.encoding)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return data, nil
}

// Save writes the document to its path in its original encoding. On success
// the autosave sidecar is removed and the document is marked saved. On
// failure the in-memory document is unchanged.
func (e *Editor) Save(ctx context.Context) error {
	if e.doc == nil {
		return fmt.Errorf("no document loaded")
	}
	if e.doc.path == "" {
		return ErrNoPath
	}
	data, err := e.encoded()
	if err != nil {
		return err
	}
	if err := e.store.Save(ctx, e.doc.path, data); err != nil {
		return err
	}
	e.afterSave(ctx)
	return nil
}

// SaveAs writes the document to target (DefaultFileName when empty) and
// makes that the document path.
func (e *Editor) SaveAs(ctx context.Context, target string) (string, error) {
	if e.doc == nil {
		return "", fmt.Errorf("no document loaded")
	}
	data, err := e.encoded()
	if err != nil {
		return "", err
	}
	path, err := e.store.SaveAs(ctx, data, target)
	if err != nil {
		return "", err
	}
	e.doc.path = path
	e.doc.format = loader.DetectFormat(path)
	e.afterSave(ctx)
	return path, nil
}

func (e *Editor) afterSave(ctx context.Context) {
	e.MarkSaved()
	if err := e.store.DiscardAutosave(ctx, e.doc.path); err != nil {
		logger.FromContext(ctx).Error(err, "removing autosave failed", "path", e.doc.path)
	}
}

// Autosave writes unsaved changes to the sidecar of the document path. It
// reports false when there is nothing to write or the write failed.
func (e *Editor) Autosave(ctx context.Context) bool {
	if e.doc == nil || e.doc.path == "" || !e.doc.modified {
		return false
	}
	return e.store.WriteAutosave(ctx, e.doc.path, e.Serialize())
}

// RecoverAutosave loads the sidecar of the document path as the new
// document text when it is newer than the file on disk. The document keeps
// its path and encoding and is marked modified.
func (e *Editor) RecoverAutosave(ctx context.Context) (bool, error) {
	if e.doc == nil || e.doc.path == "" {
		return false, nil
	}
	a, ok := e.store.LoadAutosave(ctx, e.doc.path)
	if !ok || !persist.AutosaveNewer(e.doc.path, a) {
		return false, nil
	}
	if err := e.Reparse(a.Content); err != nil {
		return false, fmt.Errorf("autosave of %s: %w", e.doc.path, err)
	}
	e.doc.modified = true
	return true, nil
}

// RestoreVersion replaces the document text with snapshot id. The restored
// text becomes an unsaved modification.
func (e *Editor) RestoreVersion(ctx context.Context, id string) error {
	if e.doc == nil || e.doc.path == "" {
		return fmt.Errorf("no saved document loaded")
	}
	text, err := e.store.RestoreVersion(ctx, e.doc.path, id)
	if err != nil {
		return err
	}
	if err := e.Reparse(text); err != nil {
		return fmt.Errorf("version %s: %w", id, err)
	}
	e.doc.modified = true
	return nil
}
