// Package planstore keeps a durable file-based record of each review:
// the plan as submitted, the reviewer's annotations, and a final
// snapshot named by slug and outcome.
package planstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/plannotator/plannotator/internal/review"
)

// DefaultDir is where plans land when no custom directory is
// configured. The leading ~ is expanded to the user's home directory.
const DefaultDir = "~/.plannotator/plans"

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\-\s]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugHyphens  = regexp.MustCompile(`-{2,}`)
	headingMatch = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// Store writes review records under a single resolved directory.
type Store struct {
	dir string
}

// New resolves the storage directory and returns a Store. customDir
// overrides the default; either may start with ~.
func New(customDir string) (*Store, error) {
	dir := customDir
	if dir == "" {
		dir = DefaultDir
	}
	dir, err := expandHome(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve plan directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the resolved storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// SavePlan writes the plan text to {slug}.md.
func (s *Store) SavePlan(slug, content string) error {
	return s.write(slug+".md", content)
}

// SaveAnnotations writes the annotation text to {slug}.annotations.md.
func (s *Store) SaveAnnotations(slug, content string) error {
	return s.write(slug+".annotations.md", content)
}

// SaveFinalSnapshot writes {slug}-{outcome}.md: the plan text, with the
// annotations appended under a separator unless they are the no-op
// sentinel.
func (s *Store) SaveFinalSnapshot(slug string, outcome review.Outcome, plan, annotations string) error {
	body := plan
	if trimmed := strings.TrimSpace(annotations); trimmed != "" && trimmed != review.NoChanges {
		body = plan + "\n\n---\n\n" + annotations
	}
	return s.write(fmt.Sprintf("%s-%s.md", slug, outcome), body)
}

// write creates the directory if needed and writes the file in one
// call. A same-slug write replaces the previous file; slugs are only
// unique per day and heading, which is accepted.
func (s *Store) write(name, content string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create plan directory: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Slug derives the file-naming key for a plan: the ISO date plus the
// sanitized first top-level heading, or "plan" when the plan has none.
func Slug(plan string, now time.Time) string {
	date := now.Format("2006-01-02")
	if m := headingMatch.FindStringSubmatch(plan); m != nil {
		if s := sanitize(m[1]); s != "" {
			return date + "-" + s
		}
	}
	return date + "-plan"
}

func sanitize(heading string) string {
	s := strings.ToLower(heading)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
