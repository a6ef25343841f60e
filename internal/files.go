package internal

import (
	"os"
	"path/filepath"
)

// FullPathname returns the given filename as an absolute path, using
// the current working directory as a base when it is relative.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}
