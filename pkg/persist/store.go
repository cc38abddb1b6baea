// Package persist writes documents back to disk and manages the files that
// live next to them: the autosave sidecar, version snapshots and the list of
// recently used files.
package persist

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/oakwood-commons/kvedit/pkg/logger"
)

const (
	// DefaultFileName is used by SaveAs when no target is given.
	DefaultFileName = "untitled.json"
	// DefaultKeep is the number of snapshots kept per file.
	DefaultKeep = 20
)

// Store performs file persistence. The zero value is not usable; call
// NewStore.
type Store struct {
	versioning bool
	keep       int
	recentPath string
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithVersioning enables snapshot-on-save, keeping at most keep snapshots per
// file. A keep below one means DefaultKeep.
func WithVersioning(keep int) Option {
	return func(s *Store) {
		s.versioning = true
		if keep < 1 {
			keep = DefaultKeep
		}
		s.keep = keep
	}
}

// WithRecentFile sets the JSON file that holds the recent files list. When
// unset, recent files are not recorded.
func WithRecentFile(path string) Option {
	return func(s *Store) {
		s.recentPath = path
	}
}

// WithClock overrides the time source used for snapshot ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns a Store configured by opts.
func NewStore(opts ...Option) *Store {
	s := &Store{keep: DefaultKeep, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Versioning reports whether saves create snapshots.
func (s *Store) Versioning() bool {
	return s.versioning
}

// Save writes data to path. With versioning enabled the previous content, if
// any, is snapshotted first; a failed snapshot is logged and does not stop
// the save.
func (s *Store) Save(ctx context.Context, path string, data []byte) error {
	lgr := logger.FromContext(ctx).WithValues("path", path)
	if err := ctx.Err(); err != nil {
		return Wrap(CodeUnknown, err, "%s", messages[CodeUnknown])
	}
	if s.versioning {
		if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
			if _, err := s.Snapshot(ctx, path, prev); err != nil {
				lgr.Error(err, "snapshot before save failed")
			}
		}
	}
	if err := writeFile(path, data); err != nil {
		perr := ioError(err)
		lgr.Error(perr.Cause, "save failed", "code", perr.Code)
		return perr
	}
	lgr.V(1).Info("saved file", "bytes", len(data))
	return nil
}

// SaveAs writes data to target, or DefaultFileName when target is empty, and
// records the result in the recent files list. It returns the path written.
func (s *Store) SaveAs(ctx context.Context, data []byte, target string) (string, error) {
	if target == "" {
		target = DefaultFileName
	}
	if err := s.Save(ctx, target, data); err != nil {
		return "", err
	}
	if err := s.AddRecent(ctx, target); err != nil {
		logger.FromContext(ctx).Error(err, "recording recent file failed", "path", target)
	}
	return target, nil
}

// writeFile replaces path through a temporary file in the same directory so
// readers never observe a partial write. The original mode is preserved.
func writeFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.swp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, mode); err != nil {
		return err
	}
	return os.Rename(name, path)
}
