package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Verifier tells files delivered through the upload channel apart from
// arbitrary paths supplied by a caller.
type Verifier interface {
	IsUploadedFile(path string) bool
}

// StagingArea holds request uploads in a private directory until the
// pipeline moves them into storage. Only files written by Stage are reported
// as uploaded.
type StagingArea struct {
	dir   string
	mu    sync.Mutex
	files map[string]struct{}
}

func NewStagingArea(dir string) (*StagingArea, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "fileintake-staging")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve staging dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &StagingArea{dir: abs, files: make(map[string]struct{})}, nil
}

func (s *StagingArea) Dir() string { return s.dir }

// Stage writes r to a new file in the staging directory and registers it.
func (s *StagingArea) Stage(r io.Reader) (string, error) {
	path := filepath.Join(s.dir, uuid.NewString())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close staged file: %w", err)
	}

	s.mu.Lock()
	s.files[path] = struct{}{}
	s.mu.Unlock()
	return path, nil
}

// StageMultipart stages the content of a multipart file part.
func (s *StagingArea) StageMultipart(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()
	return s.Stage(src)
}

// IsUploadedFile reports whether path was staged and not yet released.
func (s *StagingArea) IsUploadedFile(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	s.mu.Lock()
	_, ok := s.files[abs]
	s.mu.Unlock()
	return ok
}

// Release forgets path and deletes it if the pipeline left it behind.
func (s *StagingArea) Release(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	s.mu.Lock()
	_, ok := s.files[abs]
	delete(s.files, abs)
	s.mu.Unlock()
	if ok {
		_ = os.Remove(abs)
	}
}
