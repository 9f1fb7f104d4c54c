// Package fsutil provides the small set of filesystem helpers shared by the
// isolation and scenario packages: recursive copy of files and trees.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/scenariotest/pkg/errors"
)

// CopyFile duplicates a single file, creating parent directories as needed.
// The destination keeps the source's permission bits.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrNotFound, "%s does not exist", src)
		}
		return errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", src)
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrInvalidInput, "%s is a directory, use CopyTree", src)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot open %s", src)
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create directory for %s", dst)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create %s", dst)
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return errors.Wrapf(err, errors.ErrInternal, "cannot copy %s to %s", src, dst)
	}
	if err := dstFile.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot close %s", dst)
	}
	return nil
}

// CopyTree recursively duplicates src into dst. dst may already exist;
// existing files with the same names are overwritten, other entries are
// left alone.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrNotFound, "%s does not exist", src)
		}
		return errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", src)
	}
	if !info.IsDir() {
		return CopyFile(src, dst)
	}

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot walk %s", path)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot relativize %s", path)
		}
		dest := filepath.Join(dst, rel)

		if entry.IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrInternal, "cannot create directory %s", dest)
			}
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return errors.Wrapf(err, errors.ErrInternal, "cannot read link %s", path)
			}
			// Replace any stale entry at the destination.
			_ = os.Remove(dest)
			if err := os.Symlink(target, dest); err != nil {
				return errors.Wrapf(err, errors.ErrInternal, "cannot create symlink %s", dest)
			}
			return nil
		}
		return CopyFile(path, dest)
	})
}
