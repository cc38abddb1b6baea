package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oakwood-commons/kvedit/pkg/logger"
	"github.com/oakwood-commons/kvedit/pkg/settings"
)

// MaxRecent is the length limit of the recent files list.
const MaxRecent = 10

// DefaultRecentFile returns the recent files location under the user config
// directory.
func DefaultRecentFile() (string, error) {
	dir, err := settings.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "recent.json"), nil
}

// RecentFiles returns the recorded files, most recent first.
func (s *Store) RecentFiles(ctx context.Context) ([]string, error) {
	if s.recentPath == "" {
		return []string{}, nil
	}
	data, err := os.ReadFile(s.recentPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, ioError(err)
	}
	var files []string
	if err := json.Unmarshal(data, &files); err != nil {
		logger.FromContext(ctx).Error(err, "recent files list is corrupt, ignoring", "path", s.recentPath)
		return []string{}, nil
	}
	if len(files) > MaxRecent {
		files = files[:MaxRecent]
	}
	return files, nil
}

// AddRecent moves path to the front of the recent files list.
func (s *Store) AddRecent(ctx context.Context, path string) error {
	if s.recentPath == "" || path == "" {
		return nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	files, err := s.RecentFiles(ctx)
	if err != nil {
		return err
	}
	return s.writeRecent(PushRecent(files, path))
}

// ClearRecent empties the recent files list.
func (s *Store) ClearRecent(ctx context.Context) error {
	if s.recentPath == "" {
		return nil
	}
	logger.FromContext(ctx).V(1).Info("clearing recent files", "path", s.recentPath)
	return s.writeRecent([]string{})
}

func (s *Store) writeRecent(files []string) error {
	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal recent files: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.recentPath), 0o700); err != nil {
		return ioError(err)
	}
	if err := os.WriteFile(s.recentPath, data, 0o600); err != nil {
		return ioError(err)
	}
	return nil
}

// PushRecent returns files with path moved to the front, duplicates removed
// and the result cut to MaxRecent entries.
func PushRecent(files []string, path string) []string {
	out := make([]string, 0, MaxRecent)
	out = append(out, path)
	for _, f := range files {
		if f == path {
			continue
		}
		if len(out) == MaxRecent {
			break
		}
		out = append(out, f)
	}
	return out
}
