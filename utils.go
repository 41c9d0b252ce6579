package voc2yolo

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// filesByExtInDir returns all regular files (or symlinks) with file extension ext in directory
// dirPath, in lexical order. The extension is matched case-insensitively. Subdirectories are
// searched only if recursive is true.
func filesByExtInDir(dirPath, ext string, recursive bool) ([]string, error) {
	if !isDir(dirPath) {
		return nil, fmt.Errorf("%w: %q", ErrMissingDirectory, dirPath)
	}

	var files []string
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dirPath {
				return err
			}
			// Unreadable subdirectory, keep going with the rest.
			return nil
		}
		if d.IsDir() {
			if path != dirPath && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		// Must be a regular file or a symlink and have the requested extension.
		if (!d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0) || !hasExt(d.Name(), ext) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %v", dirPath, err)
	}

	return files, nil
}

// hasExt reports whether path ends in extension ext (with the dot), ignoring case.
func hasExt(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

// isDir reports whether path exists and is a directory.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isFile reports whether path exists and is not a directory.
func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// closeWithErrCheck closes c and keeps the close error in *e unless *e already holds one.
func closeWithErrCheck(c io.Closer, e *error) {
	if err := c.Close(); *e == nil {
		*e = err
	}
}
