// Package blob stores photo objects on the local filesystem, addressed by
// slash-separated relative paths.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"eatlog/internal/model"
)

// ErrInvalidPath is returned for absolute paths and paths escaping the root.
var ErrInvalidPath = errors.New("invalid object path")

// FS is a blob store rooted at a directory.
type FS struct {
	root    string
	baseURL string
}

// New creates the root directory if needed. baseURL, when set, prefixes
// public URLs; otherwise PublicURL returns file:// URLs.
func New(root, baseURL string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &FS{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// ObjectPath builds the canonical <owner>/<experience>/<photo>.<ext> path.
func ObjectPath(owner, experienceID, photoID uuid.UUID, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	return path.Join(owner.String(), experienceID.String(), photoID.String()+"."+ext)
}

// ValidatePath rejects empty, absolute and non-canonical paths.
func ValidatePath(p string) error {
	switch {
	case p == "",
		strings.HasPrefix(p, "/"),
		strings.Contains(p, `\`),
		path.Clean(p) != p,
		p == "..", strings.HasPrefix(p, "../"):
		return fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return nil
}

func (s *FS) resolve(p string) (string, error) {
	if err := ValidatePath(p); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(p)), nil
}

// Upload stores data at p. An existing object is never overwritten.
func (s *FS) Upload(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write object %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write object %s: %w", p, err)
	}

	// Link fails when the target exists, which keeps uploads create-only.
	if err := os.Link(tmp.Name(), full); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("object %s: %w", p, model.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to store object %s: %w", p, err)
	}
	return nil
}

// Download returns the object stored at p.
func (s *FS) Download(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object %s: %w", p, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", p, err)
	}
	return data, nil
}

// Delete removes the object at p. Deleting a missing object succeeds.
// Directories left empty are pruned up to the root.
func (s *FS) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", p, err)
	}

	for dir := filepath.Dir(full); dir != s.root && strings.HasPrefix(dir, s.root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// PublicURL returns the URL an object is served from.
func (s *FS) PublicURL(p string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + p
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.root, filepath.FromSlash(p)))}
	return u.String()
}
