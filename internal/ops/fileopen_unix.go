//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/captiongenius/internal/errors"
)

const noFollow = syscall.O_NOFOLLOW | syscall.O_CLOEXEC

// openFileNoFollow opens an export temp file. A symlink at the final
// component is refused; parent directories are vetted by ValidateExportPath.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|noFollow, uint32(perm))
	if stderrors.Is(err, syscall.ELOOP) {
		return nil, errors.NewInvalidRequest("cannot write an export through a symlink")
	}
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openImageFile opens an image for SetImageFromFile without following a
// symlink at the final component.
func openImageFile(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|noFollow, 0)
	switch {
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest("cannot read an image through a symlink")
	case stderrors.Is(err, syscall.ENOENT):
		return nil, errors.NewFileNotFound(path)
	case err != nil:
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
