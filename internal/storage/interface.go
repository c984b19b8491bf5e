package storage

import (
	"context"
	"errors"
	"io"

	"github.com/opencontainers/go-digest"
)

// ErrNotFound is returned when a local path does not exist
var ErrNotFound = errors.New("local path not found")

// ErrDigestMismatch is returned when stored content does not hash to the
// expected digest
var ErrDigestMismatch = errors.New("digest mismatch")

// FileStorage is the local side of an upload or a download. Paths are
// relative to the storage root and use "/" as separator.
type FileStorage interface {
	Store(ctx context.Context, path string, content io.Reader, expected digest.Digest) (int64, digest.Digest, error)
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)
	Exists(ctx context.Context, path string) (bool, error)
	Digest(ctx context.Context, path string) (digest.Digest, error)
	List(ctx context.Context, dir string, recurse bool) ([]string, error)
	FullPath(path string) string
}
