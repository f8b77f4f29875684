package gather

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// progress records the last session a run completed so a second run on the
// same day is a no-op. A nil *progress records nothing.
type progress struct {
	dir string
}

func newProgress(dir string) (*progress, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating progress dir: %w", err)
	}
	return &progress{dir: dir}, nil
}

func (p *progress) path() string {
	return filepath.Join(p.dir, ".last-completed")
}

// LastCompleted returns the date from .last-completed, or "".
func (p *progress) LastCompleted() string {
	if p == nil {
		return ""
	}
	data, err := os.ReadFile(p.path())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// IsCompleted reports whether .last-completed matches date.
func (p *progress) IsCompleted(date string) bool {
	return p != nil && p.LastCompleted() == date
}

// MarkCompleted writes date to .last-completed.
func (p *progress) MarkCompleted(date string) error {
	if p == nil {
		return nil
	}
	if err := os.WriteFile(p.path(), []byte(date), 0o644); err != nil {
		return fmt.Errorf("writing .last-completed: %w", err)
	}
	return nil
}
