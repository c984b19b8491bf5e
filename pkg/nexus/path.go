package nexus

import (
	"fmt"
	"strings"
)

// RemotePathSeparator separates the segments of a repository path
const RemotePathSeparator = "/"

// SplitComponentPath splits "repository/dir/sub/file" into its repository,
// directory and file name. A trailing separator means the path names a
// directory, so file is empty.
func SplitComponentPath(componentPath string) (repository, directory, file string, err error) {
	trimmed := strings.TrimLeft(componentPath, RemotePathSeparator)
	if trimmed == "" {
		return "", "", "", fmt.Errorf("%w: %q must start with a repository name", ErrInvalidRepositoryPath, componentPath)
	}

	isDir := strings.HasSuffix(trimmed, RemotePathSeparator)
	segments := strings.Split(strings.Trim(trimmed, RemotePathSeparator), RemotePathSeparator)

	repository = segments[0]
	rest := segments[1:]
	if !isDir && len(rest) > 0 {
		file = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}
	directory = JoinRemotePath(rest...)
	return repository, directory, file, nil
}

// JoinRemotePath joins segments with the remote separator, dropping empty
// segments and duplicate separators
func JoinRemotePath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		for _, p := range strings.Split(s, RemotePathSeparator) {
			if p != "" {
				parts = append(parts, p)
			}
		}
	}
	return strings.Join(parts, RemotePathSeparator)
}
