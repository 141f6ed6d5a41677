// Package storage keeps uploaded and produced videos on local disk and
// optionally publishes finished videos to S3.
package storage

import (
	"context"
	"io"
)

// Storage defines where the job API keeps its files.
type Storage interface {
	// TempDir is the root under which uploads, outputs and pipeline scratch
	// directories live.
	TempDir() string

	// SaveTemp stores data as an upload and returns its path. The name is a
	// client-supplied filename; only a sanitized form of it and its
	// extension are kept.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// OutputPath returns where the finished video for jobID is written.
	OutputPath(jobID string) string

	// LoadTemp opens a stored file. The caller closes the returned reader.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the given files, continuing past failures.
	CleanupTemp(ctx context.Context, paths []string) error

	// UploadToS3 uploads data under key and returns the object URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
