package persist

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oakwood-commons/kvedit/pkg/loader"
	"github.com/oakwood-commons/kvedit/pkg/logger"
)

const (
	// VersionsSuffix is appended to a document path to name its snapshot
	// directory.
	VersionsSuffix = ".versions"

	snapshotTimeLayout = "20060102T150405.000Z"
)

// Version describes one snapshot of a document.
type Version struct {
	ID        string
	Timestamp time.Time
	Size      int64
}

// VersionsDir returns the snapshot directory for path.
func VersionsDir(path string) string {
	return path + VersionsSuffix
}

func isVersionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".json5":
		return true
	}
	return false
}

// ListVersions returns the snapshots of path, newest first. A missing
// snapshot directory yields an empty list.
func (s *Store) ListVersions(ctx context.Context, path string) ([]Version, error) {
	entries, err := os.ReadDir(VersionsDir(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Version{}, nil
		}
		return nil, ioError(err)
	}
	versions := make([]Version, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isVersionFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.FromContext(ctx).V(1).Info("skipping unreadable snapshot", "id", entry.Name(), "error", err.Error())
			continue
		}
		versions = append(versions, Version{
			ID:        entry.Name(),
			Timestamp: info.ModTime(),
			Size:      info.Size(),
		})
	}
	sort.SliceStable(versions, func(i, j int) bool {
		if !versions[i].Timestamp.Equal(versions[j].Timestamp) {
			return versions[i].Timestamp.After(versions[j].Timestamp)
		}
		return versions[i].ID > versions[j].ID
	})
	return versions, nil
}

// validID rejects ids that would escape the snapshot directory.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && filepath.Base(id) == id
}

// RestoreVersion returns the decoded text of snapshot id of path.
func (s *Store) RestoreVersion(ctx context.Context, path, id string) (string, error) {
	if !validID(id) {
		return "", New(CodeNotFound, "no version %q", id)
	}
	data, err := os.ReadFile(filepath.Join(VersionsDir(path), id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", Wrap(CodeNotFound, err, "version %s not found", id)
		}
		return "", ioError(err)
	}
	text, _, err := loader.Decode(data)
	if err != nil {
		return "", Wrap(CodeUnknown, err, "version %s is not readable text", id)
	}
	logger.FromContext(ctx).V(1).Info("restored version", "path", path, "id", id)
	return text, nil
}

// Snapshot stores data as a new snapshot of path and prunes old snapshots
// beyond the configured limit.
func (s *Store) Snapshot(ctx context.Context, path string, data []byte) (Version, error) {
	dir := VersionsDir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Version{}, ioError(err)
	}
	ext := ".json"
	if loader.DetectFormat(path) == loader.FormatJSON5 {
		ext = ".json5"
	}
	now := s.now().UTC()
	id := now.Format(snapshotTimeLayout) + "-" + uuid.NewString()[:8] + ext
	file := filepath.Join(dir, id)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return Version{}, ioError(err)
	}
	if err := os.Chtimes(file, now, now); err != nil {
		logger.FromContext(ctx).V(1).Info("setting snapshot time failed", "id", id, "error", err.Error())
	}
	logger.FromContext(ctx).V(1).Info("created snapshot", "path", path, "id", id)
	if err := s.Prune(ctx, path); err != nil {
		logger.FromContext(ctx).Error(err, "pruning snapshots failed", "path", path)
	}
	return Version{ID: id, Timestamp: now, Size: int64(len(data))}, nil
}

// Prune removes all but the newest snapshots of path.
func (s *Store) Prune(ctx context.Context, path string) error {
	versions, err := s.ListVersions(ctx, path)
	if err != nil {
		return err
	}
	if len(versions) <= s.keep {
		return nil
	}
	for _, v := range versions[s.keep:] {
		if err := os.Remove(filepath.Join(VersionsDir(path), v.ID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ioError(err)
		}
	}
	return nil
}
