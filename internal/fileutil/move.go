package fileutil

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// MoveMethod records how Move relocated a file.
type MoveMethod string

const (
	MoveRename MoveMethod = "rename"
	MoveCopy   MoveMethod = "copy"
)

// ErrCopyFailed marks a cross-volume copy that did not complete or did not
// verify. The source is untouched when it is returned.
var ErrCopyFailed = errors.New("cross-volume copy failed")

// Move relocates src to dst. On the same volume this is a single rename; across
// volumes the file is copied with verification and the source removed only
// after the copy checks out. An EXDEV from rename (bind mounts, overlay
// filesystems) also falls back to the copy path.
func Move(src, dst string) (MoveMethod, error) {
	same, err := SameVolume(src, dst)
	if err != nil {
		return "", fmt.Errorf("compare volumes: %w", err)
	}
	if same {
		renameErr := os.Rename(src, dst)
		if renameErr == nil {
			return MoveRename, nil
		}
		var linkErr *os.LinkError
		if !errors.As(renameErr, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
			return "", renameErr
		}
	}
	return MoveCopy, copyThenRemove(src, dst)
}

// removeSource is swapped in tests to simulate a source that cannot be removed.
var removeSource = os.RemoveAll

const (
	partialSuffix  = ".docshelf-partial"
	previousSuffix = ".docshelf-previous"
)

// copyThenRemove copies src (a file or a whole tree) beside dst, swaps it into
// place, and removes src last. Until src is gone every failure puts dst back
// the way it was.
func copyThenRemove(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}

	staging := dst + partialSuffix
	_ = os.RemoveAll(staging)
	var digest string
	if info.IsDir() {
		digest, err = CopyTreeVerified(src, staging)
	} else {
		digest, err = CopyFileVerified(src, staging)
	}
	if err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}

	exists, err := Exists(dst)
	if err != nil {
		_ = os.RemoveAll(staging)
		return err
	}
	previous := ""
	if exists {
		previous = dst + previousSuffix
		_ = os.RemoveAll(previous)
		if err := os.Rename(dst, previous); err != nil {
			_ = os.RemoveAll(staging)
			return fmt.Errorf("%w: set aside destination: %w", ErrCopyFailed, err)
		}
	}
	if err := os.Rename(staging, dst); err != nil {
		_ = os.RemoveAll(staging)
		restorePrevious(previous, dst)
		return fmt.Errorf("%w: replace destination: %w", ErrCopyFailed, err)
	}

	if err := removeSource(src); err != nil {
		if sourceIntact(src, info.IsDir(), digest) {
			_ = os.RemoveAll(dst)
			restorePrevious(previous, dst)
			return fmt.Errorf("remove source after verified copy: %w", err)
		}
		// Part of the source is gone; the copy at dst is now the only full one.
		return fmt.Errorf("remove source after verified copy (partly removed, copy kept at %s): %w", dst, err)
	}
	if previous != "" {
		_ = os.RemoveAll(previous)
	}
	return nil
}

func restorePrevious(previous, dst string) {
	if previous == "" {
		return
	}
	_ = os.Rename(previous, dst)
}

func sourceIntact(src string, dir bool, digest string) bool {
	var got string
	var err error
	if dir {
		got, err = HashTree(src)
	} else {
		got, err = HashFile(src)
	}
	return err == nil && got == digest
}
