//go:build unix

package fileutil

import (
	"errors"
	"io/fs"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// SameVolume reports whether a and b live on the same device. A path that does
// not exist yet is resolved to its nearest existing ancestor, which is where
// it would be created.
func SameVolume(a, b string) (bool, error) {
	devA, err := deviceOf(a)
	if err != nil {
		return false, err
	}
	devB, err := deviceOf(b)
	if err != nil {
		return false, err
	}
	return devA == devB, nil
}

func deviceOf(path string) (uint64, error) {
	current := filepath.Clean(path)
	for {
		var st unix.Stat_t
		err := unix.Lstat(current, &st)
		if err == nil {
			return uint64(st.Dev), nil //nolint:unconvert // Dev width differs across platforms
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return 0, &fs.PathError{Op: "lstat", Path: current, Err: err}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return 0, &fs.PathError{Op: "lstat", Path: path, Err: err}
		}
		current = parent
	}
}
