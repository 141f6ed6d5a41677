package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrS3NotConfigured is returned when S3 operations are attempted
// without proper configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

const (
	uploadsDir = "uploads"
	outputsDir = "outputs"
	// maxStemLen bounds the sanitized filename stem.
	maxStemLen = 64
)

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements Storage on local disk. It does not support S3
// uploads unless wrapped by S3Storage.
type LocalStorage struct {
	tempDir string
}

// NewLocalStorage creates a LocalStorage rooted at tempDir, creating its
// uploads and outputs directories. An empty tempDir means
// os.TempDir()/silentcut.
func NewLocalStorage(tempDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "silentcut")
	}

	for _, dir := range []string{tempDir, filepath.Join(tempDir, uploadsDir), filepath.Join(tempDir, outputsDir)} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	return &LocalStorage{tempDir: tempDir}, nil
}

// TempDir returns the storage root.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// OutputPath returns <root>/outputs/<jobID>.mp4.
func (s *LocalStorage) OutputPath(jobID string) string {
	return filepath.Join(s.tempDir, outputsDir, sanitizeStem(jobID)+".mp4")
}

// SaveTemp writes data to <root>/uploads/<stem>_<random><ext>.
func (s *LocalStorage) SaveTemp(ctx context.Context, name string, data io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	stem, ext := splitName(name)
	f, err := os.CreateTemp(filepath.Join(s.tempDir, uploadsDir), stem+"_*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, contextReader{ctx: ctx, r: data}); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return fileName, nil
}

// LoadTemp opens a stored file for reading.
func (s *LocalStorage) LoadTemp(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	f, err := os.Open(path) // #nosec G304 - path comes from the job record
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}

	return f, nil
}

// CleanupTemp removes the given files. Missing files and empty paths are
// ignored; the first other error is returned after all paths are tried.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}
		if p == "" {
			continue
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove temp file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// UploadToS3 is not supported by LocalStorage and returns ErrS3NotConfigured.
func (s *LocalStorage) UploadToS3(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrS3NotConfigured
}

// splitName turns a client filename into a safe stem and lower-cased
// extension.
func splitName(name string) (stem, ext string) {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext = strings.ToLower(filepath.Ext(base))
	if ext != "" && sanitizeStem(ext[1:]) != ext[1:] {
		ext = ""
	}
	return sanitizeStem(strings.TrimSuffix(base, filepath.Ext(base))), ext
}

// sanitizeStem keeps ASCII letters, digits, '-' and '_', replacing anything
// else with '_'.
func sanitizeStem(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxStemLen {
			break
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "upload"
	}
	return out
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
