package storage

import (
	"context"
	_ "crypto/sha256" // registers digest.SHA256
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"
)

// LocalStorage reads and writes files below a directory on the local
// filesystem
type LocalStorage struct {
	basePath string
	mutex    sync.RWMutex
}

var _ FileStorage = (*LocalStorage)(nil)

// NewLocalStorage returns a storage rooted at basePath. The directory is
// created on the first Store, so a missing root is only an error for reads.
func NewLocalStorage(basePath string) *LocalStorage {
	if basePath == "" {
		basePath = "."
	}
	return &LocalStorage{basePath: filepath.Clean(basePath)}
}

// BasePath returns the storage root
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// FullPath maps a relative slash separated path onto the local filesystem
func (ls *LocalStorage) FullPath(path string) string {
	return filepath.Join(ls.basePath, filepath.FromSlash(strings.TrimLeft(path, "/")))
}

// Store writes content to path atomically. When expected is set and the
// written content hashes differently the file is discarded and
// ErrDigestMismatch returned.
func (ls *LocalStorage) Store(ctx context.Context, path string, content io.Reader, expected digest.Digest) (int64, digest.Digest, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return 0, "", ctx.Err()
	default:
	}

	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	fullPath := ls.FullPath(path)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Str("path", path).Str("dir", dir).Msg("failed to create directory")
		return 0, "", fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".tmp.*")
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to create temporary file")
		return 0, "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		tempFile.Close()
		if _, err := os.Stat(tempPath); err == nil {
			os.Remove(tempPath)
		}
	}()

	algorithm := digest.Canonical
	if expected != "" && expected.Validate() == nil {
		algorithm = expected.Algorithm()
	}
	digester := algorithm.Digester()

	written, err := io.Copy(io.MultiWriter(tempFile, digester.Hash()), content)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to write content to temporary file")
		return 0, "", fmt.Errorf("failed to write content: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return 0, "", fmt.Errorf("failed to sync temporary file: %w", err)
	}
	tempFile.Close()

	dgst := digester.Digest()
	if expected != "" && dgst != expected {
		log.Warn().
			Str("path", path).
			Str("expected", expected.String()).
			Str("actual", dgst.String()).
			Msg("content digest mismatch")
		return written, dgst, fmt.Errorf("%w: %s: expected %s, got %s", ErrDigestMismatch, path, expected, dgst)
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to move temporary file to final location")
		return 0, "", fmt.Errorf("failed to move file to final location: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int64("bytes_written", written).
		Str("digest", dgst.String()).
		Dur("duration", time.Since(startTime)).
		Msg("file stored")

	return written, dgst, nil
}

// Open returns a reader for path and its size
func (ls *LocalStorage) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}

	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	file, err := os.Open(ls.FullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, 0, fmt.Errorf("%s is a directory", path)
	}
	return file, info.Size(), nil
}

// Exists reports whether path exists
func (ls *LocalStorage) Exists(ctx context.Context, path string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if _, err := os.Stat(ls.FullPath(path)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// Digest returns the sha256 digest of the file at path
func (ls *LocalStorage) Digest(ctx context.Context, path string) (digest.Digest, error) {
	rc, _, err := ls.Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dgst, err := digest.Canonical.FromReader(rc)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return dgst, nil
}

// List returns the files below dir as sorted slash separated paths relative
// to dir. Without recurse only the files directly inside dir are returned.
// Hidden temporary files left by Store are skipped.
func (ls *LocalStorage) List(ctx context.Context, dir string, recurse bool) ([]string, error) {
	startTime := time.Now()

	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	root := ls.FullPath(dir)
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if os.IsPermission(err) {
				log.Debug().Err(err).Str("path", path).Msg("skipping inaccessible path")
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			return err
		}

		if d.IsDir() {
			if path != root && !recurse {
				return filepath.SkipDir
			}
			return nil
		}
		if isTempFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("dir", root).Msg("failed to list files")
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(paths)
	log.Debug().
		Str("dir", root).
		Bool("recurse", recurse).
		Int("count", len(paths)).
		Dur("duration", time.Since(startTime)).
		Msg("files listed")

	return paths, nil
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, ".tmp.")
}
