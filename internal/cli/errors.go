package cli

import (
	"errors"
	"fmt"

	"github.com/lgulliver/nexus3-cli/pkg/config"
	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/blobstore"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/cleanup"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/repository"
)

// Exit codes
const (
	ExitSuccess            = 0
	ExitNoFiles            = 1
	ExitAPIError           = 2
	ExitInvalidCredentials = 3
	ExitConfigError        = 4
	ExitVersionMismatch    = 5
	ExitNotFound           = 6
	ExitUsage              = 7
)

var (
	// ErrNoFiles is returned when a transfer or listing matched nothing
	ErrNoFiles = errors.New("no files")
	// ErrUsage wraps argument and flag errors
	ErrUsage = errors.New("usage error")
	// ErrConfig wraps failures to load the settings
	ErrConfig = errors.New("configuration error")
)

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// ExitCode maps an error returned by a command onto the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrNoFiles):
		return ExitNoFiles
	case errors.Is(err, nexus.ErrInvalidCredentials):
		return ExitInvalidCredentials
	case errors.Is(err, ErrConfig), errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case errors.Is(err, nexus.ErrVersionMismatch):
		return ExitVersionMismatch
	case errors.Is(err, nexus.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrUsage),
		errors.Is(err, nexus.ErrInvalidRepositoryPath),
		errors.Is(err, repository.ErrInvalidOption),
		errors.Is(err, repository.ErrUnsupportedRecipe),
		errors.Is(err, repository.ErrUploadNotSupported),
		errors.Is(err, cleanup.ErrInvalidPolicy),
		errors.Is(err, blobstore.ErrInvalidBlobStore),
		errors.Is(err, blobstore.ErrUnsupportedType):
		return ExitUsage
	default:
		return ExitAPIError
	}
}
