package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/toplanma/internal/domain/model"
	"github.com/okian/toplanma/pkg/metrics"
)

// FileStore writes province documents into a directory.
type FileStore struct {
	dir    string
	indent string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string, opts ...Option) *FileStore {
	s := &FileStore{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveProvince writes the document to a temporary file and renames it into
// place, so readers never observe a partial document.
func (s *FileStore) SaveProvince(ctx context.Context, p *model.Province) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}

	target := filepath.Join(s.dir, FileName(p.Code, p.Name))
	tmp, err := os.CreateTemp(s.dir, ".toplanma-*.json")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if s.indent != "" {
		enc.SetIndent("", s.indent)
	}
	if err := enc.Encode(document(p)); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: encode %s: %w", ErrWrite, p.Name, err)
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}

	metrics.RecordProvinceWritten()
	return target, nil
}
