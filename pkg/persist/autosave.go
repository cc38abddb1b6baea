package persist

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/oakwood-commons/kvedit/pkg/logger"
)

// AutosaveSuffix is appended to a document path to name its sidecar.
const AutosaveSuffix = ".tmp"

// Autosave is the content of an autosave sidecar and when it was written.
type Autosave struct {
	Content   string
	Timestamp time.Time
}

// AutosavePath returns the sidecar path for path.
func AutosavePath(path string) string {
	return path + AutosaveSuffix
}

// WriteAutosave writes content to the sidecar of path. Failures are logged
// and reported as false.
func (s *Store) WriteAutosave(ctx context.Context, path, content string) bool {
	lgr := logger.FromContext(ctx)
	if path == "" {
		return false
	}
	sidecar := AutosavePath(path)
	if err := os.WriteFile(sidecar, []byte(content), 0o600); err != nil {
		lgr.Error(err, "autosave failed", "path", sidecar)
		return false
	}
	lgr.V(1).Info("autosaved", "path", sidecar, "bytes", len(content))
	return true
}

// LoadAutosave reads the sidecar of path. It reports false when there is no
// readable sidecar.
func (s *Store) LoadAutosave(ctx context.Context, path string) (*Autosave, bool) {
	sidecar := AutosavePath(path)
	info, err := os.Stat(sidecar)
	if err != nil || info.IsDir() {
		return nil, false
	}
	data, err := os.ReadFile(sidecar)
	if err != nil {
		logger.FromContext(ctx).Error(err, "reading autosave failed", "path", sidecar)
		return nil, false
	}
	return &Autosave{Content: string(data), Timestamp: info.ModTime()}, true
}

// DiscardAutosave removes the sidecar of path. A missing sidecar is not an
// error.
func (s *Store) DiscardAutosave(ctx context.Context, path string) error {
	sidecar := AutosavePath(path)
	if err := os.Remove(sidecar); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioError(err)
	}
	logger.FromContext(ctx).V(1).Info("discarded autosave", "path", sidecar)
	return nil
}

// AutosaveNewer reports whether a is more recent than the file at path. A
// missing primary file makes any autosave newer.
func AutosaveNewer(path string, a *Autosave) bool {
	if a == nil {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return a.Timestamp.After(info.ModTime())
}
