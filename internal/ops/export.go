package ops

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/captiongenius/internal/errors"
)

// ExportFavoriteInput contains parameters for the ExportFavorite operation.
type ExportFavoriteInput struct {
	ID   string
	Path string // optional, default: <base>/exports/caption-<id>.txt
}

// ExportFavoriteOutput contains the result of the ExportFavorite operation.
type ExportFavoriteOutput struct {
	Path       string `json:"path"`
	Bytes      int    `json:"bytes"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportFavorite writes a favorite's text to a .txt file.
func (c *Controller) ExportFavorite(input ExportFavoriteInput) (*ExportFavoriteOutput, error) {
	file, err := c.FavoriteText(input.ID)
	if err != nil {
		return nil, err
	}

	exportsDir, err := c.ExportsDir()
	if err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(exportsDir, file.Filename)
	}

	// The default destination is checked too.
	if err := ValidateExportPath(exportPath, exportsDir, c.cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	if err := writeFileAtomic(exportPath, []byte(file.Text)); err != nil {
		return nil, err
	}

	c.logger.Info("favorite exported", "id", input.ID, "path", exportPath)
	return &ExportFavoriteOutput{
		Path:       exportPath,
		Bytes:      len(file.Text),
		ExportedAt: time.Now().Unix(),
	}, nil
}

// ExportsDir returns the default exports directory.
func (c *Controller) ExportsDir() (string, error) {
	if c.baseDir != "" {
		return filepath.Join(c.baseDir, "exports"), nil
	}
	return DefaultExportsDir()
}

// writeFileAtomic writes data to a temp file next to path, then renames it
// into place so an existing file survives a failed write.
func writeFileAtomic(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	// On Windows, os.Rename fails if the destination exists. Fail safely
	// instead of a non-atomic delete+rename.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
