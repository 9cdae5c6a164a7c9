package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/gruntwork-io/batchrun/internal/errors"
)

const defaultDirPerm = 0755

// FileExists returns true if the given file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile returns true if the given path exists and is a regular file.
func IsFile(path string) bool {
	fileInfo, err := os.Stat(path)
	return err == nil && fileInfo.Mode().IsRegular()
}

// IsDir returns true if the given path exists and is a directory.
func IsDir(path string) bool {
	fileInfo, err := os.Stat(path)
	return err == nil && fileInfo.IsDir()
}

// EnsureDirectory creates a directory at this path if it does not exist, or error if the path exists and is a file.
func EnsureDirectory(path string) error {
	if IsFile(path) {
		return errors.New(PathIsNotDirectory{path})
	}

	if err := os.MkdirAll(path, defaultDirPerm); err != nil {
		return errors.New(err)
	}

	return nil
}

// CanonicalPath returns the absolute, cleaned version of the given path. A leading `~` is expanded to the
// home directory and relative paths are resolved against the given base path.
func CanonicalPath(path, basePath string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.New(err)
	}

	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(basePath, expanded)
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.New(err)
	}

	return filepath.Clean(absPath), nil
}

// JoinPath is the same as filepath.Join, but always uses forward slashes.
func JoinPath(elem ...string) string {
	return filepath.ToSlash(filepath.Join(elem...))
}

// PathIsNotDirectory is returned when a directory is expected but a file was found.
type PathIsNotDirectory struct {
	path string
}

func (err PathIsNotDirectory) Error() string {
	return fmt.Sprintf("%s is not a directory", err.path)
}
