package fileutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Exists reports whether path names an existing file or directory. Errors
// other than "not exist" are returned so callers never mistake an unreadable
// path for a free one.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// CopyFileVerified streams src to dst with SHA256 + size integrity verification
// and returns the hex digest of the copied content. The destination is re-read
// after it has been flushed and closed; dst is removed on any failure.
func CopyFileVerified(src, dst string) (string, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return "", fmt.Errorf("copy %s: not a regular file", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		return "", err
	}
	fail := func(err error) (string, error) {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", err
	}

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return fail(err)
	}
	if err := out.Sync(); err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}

	dstDigest, err := HashFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("hash copy: %w", err)
	}
	srcDigest := srcHasher.Sum(nil)
	if !bytes.Equal(srcDigest, mustDecode(dstDigest)) {
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return dstDigest, nil
}

// CopyTreeVerified copies the directory src to dst, which must not exist,
// verifying every file and then the tree digest. It returns the tree digest.
// dst is removed on any failure.
func CopyTreeVerified(src, dst string) (string, error) {
	if _, err := os.Lstat(dst); err == nil {
		return "", fmt.Errorf("copy %s: destination %s exists", src, dst)
	}
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.Mkdir(target, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			_, err := CopyFileVerified(path, target)
			return err
		default:
			return fmt.Errorf("copy %s: unsupported file type %s", path, d.Type())
		}
	})
	if err != nil {
		_ = os.RemoveAll(dst)
		return "", err
	}

	want, err := HashTree(src)
	if err != nil {
		_ = os.RemoveAll(dst)
		return "", fmt.Errorf("hash source tree: %w", err)
	}
	got, err := HashTree(dst)
	if err != nil {
		_ = os.RemoveAll(dst)
		return "", fmt.Errorf("hash copied tree: %w", err)
	}
	if got != want {
		_ = os.RemoveAll(dst)
		return "", fmt.Errorf("copy hash mismatch: tree changed during copy")
	}
	return got, nil
}

// HashFile returns the hex SHA256 digest of a regular file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashTree digests a directory as the ordered sequence of relative path and
// file digest pairs, so two trees with identical layout and content hash the
// same. Symlinks contribute their target string rather than being followed.
func HashTree(root string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			fmt.Fprintf(h, "d %s\x00", filepath.ToSlash(rel))
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(h, "l %s\x00%s\x00", filepath.ToSlash(rel), target)
		default:
			digest, err := HashFile(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(h, "f %s\x00%s\x00", filepath.ToSlash(rel), digest)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func mustDecode(digest string) []byte {
	raw, err := hex.DecodeString(digest)
	if err != nil {
		return nil
	}
	return raw
}
