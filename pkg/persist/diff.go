package persist

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffContext is the number of unchanged lines shown around each change.
const DiffContext = 3

// DiffVersion returns a unified diff from snapshot id of path to current.
// Identical content yields an empty string.
func (s *Store) DiffVersion(ctx context.Context, path, id, current string) (string, error) {
	old, err := s.RestoreVersion(ctx, path, id)
	if err != nil {
		return "", err
	}
	return Diff(old, current, id, path)
}

// Diff returns a unified diff between two texts.
func Diff(from, to, fromName, toName string) (string, error) {
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(from),
		B:        splitLinesKeepNL(to),
		FromFile: fromName,
		ToFile:   toName,
		Context:  DiffContext,
	}
	out, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", fmt.Errorf("building diff: %w", err)
	}
	return out, nil
}

func splitLinesKeepNL(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
