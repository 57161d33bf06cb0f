package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/hpungsan/captiongenius/internal/config"
	"github.com/hpungsan/captiongenius/internal/errors"
)

// ExportExt is the only extension accepted for favorite exports.
const ExportExt = ".txt"

// ValidateExportPath checks a favorite export destination. The file must end
// in .txt, sit directly in the exports dir or an allowed_paths entry, and
// must not be a symlink. allow_unsafe_paths lifts the directory rule only.
//
// Subdirectories are refused so no intermediate component can be swapped
// for a symlink between this check and the O_NOFOLLOW open.
func ValidateExportPath(path, exportsDir string, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if hasParentRef(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	if !strings.EqualFold(filepath.Ext(abs), ExportExt) {
		return errors.NewInvalidRequest("path must have " + ExportExt + " extension")
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		dirs, err := exportDirs(exportsDir, cfg)
		if err != nil {
			return err
		}
		parent := filepath.Dir(abs)
		if !containsDir(dirs, parent) {
			return errors.NewInvalidRequest(fmt.Sprintf(
				"export must be directly in the exports dir or an allowed path; allowed: %v", dirs))
		}
		if isSymlink(parent) {
			return errors.NewInvalidRequest("export directory must not be a symlink")
		}
	}

	if isSymlink(abs) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// exportDirs lists the directories exports may be written to, absolute and
// with symlinked entries resolved. Relative allowed_paths are ignored.
func exportDirs(exportsDir string, cfg *config.Config) ([]string, error) {
	if exportsDir == "" {
		var err error
		if exportsDir, err = DefaultExportsDir(); err != nil {
			return nil, err
		}
	}
	candidates := []string{exportsDir}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				candidates = append(candidates, p)
			}
		}
	}

	dirs := make([]string, 0, len(candidates))
	for _, d := range candidates {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			if abs, err = filepath.EvalSymlinks(abs); err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve allowed path: %v", err))
			}
		}
		dirs = append(dirs, abs)
	}
	return dirs, nil
}

func containsDir(dirs []string, dir string) bool {
	for _, d := range dirs {
		if d == dir {
			return true
		}
	}
	return false
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// DefaultExportsDir returns ~/.captiongenius/exports.
func DefaultExportsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, config.DirName, "exports"), nil
}

// hasParentRef reports whether any component of path is "..". Both
// separators are checked so "/" input is caught on Windows too.
func hasParentRef(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}

// sanitizeID reduces an id to letters, digits, '-' and '_' for use in a
// file name. Anything else becomes a single dash.
func sanitizeID(id string) string {
	var b strings.Builder
	dash := false
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	if s := strings.Trim(b.String(), "-"); s != "" {
		return s
	}
	return "unnamed"
}
