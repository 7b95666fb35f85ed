package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is a blob directory addressed by resolved filename. The workflow
// only ever sees the resolved name; the bytes never pass through the core.
type Store struct {
	dir string
}

// NewStore ensures the blob directory exists.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save persists the content under a sanitized name and returns the resolved
// filename. An existing file with the same name is never overwritten; the
// new content gets a unique suffix instead.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	resolved := sanitize(name)
	if resolved == "" {
		return "", errors.New("invalid file name")
	}
	path := filepath.Join(s.dir, resolved)
	if _, err := os.Stat(path); err == nil {
		ext := filepath.Ext(resolved)
		base := strings.TrimSuffix(resolved, ext)
		resolved = fmt.Sprintf("%s-%s%s", base, uuid.NewString()[:8], ext)
		path = filepath.Join(s.dir, resolved)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return resolved, nil
}

// Open returns a reader for a previously saved attachment.
func (s *Store) Open(resolved string) (io.ReadCloser, error) {
	clean := sanitize(resolved)
	if clean == "" || clean != resolved {
		return nil, errors.New("invalid file name")
	}
	return os.Open(filepath.Join(s.dir, clean))
}

func sanitize(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.ReplaceAll(base, " ", "_")
	return base
}
