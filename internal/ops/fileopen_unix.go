//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/reps/internal/errors"
)

// noFollow refuses a symlink as the last path component. Parent directories
// are covered by ValidatePath, which only accepts files directly inside an
// allowed directory.
const noFollow = syscall.O_NOFOLLOW | syscall.O_CLOEXEC

// createExportFile creates a fresh, owner-only temp file for an export.
// An existing file at path is an error.
func createExportFile(path string) (*os.File, error) {
	fd, err := syscall.Open(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|noFollow, 0600)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("export path is a symlink")
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openImportFile opens an export file for reading.
func openImportFile(path string) (*os.File, error) {
	fd, err := syscall.Open(path, os.O_RDONLY|noFollow, 0)
	switch {
	case err == nil:
		return os.NewFile(uintptr(fd), path), nil
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest("import path is a symlink")
	case stderrors.Is(err, syscall.ENOENT):
		return nil, errors.NewFileNotFound(path)
	default:
		return nil, err
	}
}
