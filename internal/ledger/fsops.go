package ledger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// copyPath copies a file or a whole directory tree from src to dst,
// creating dst's parents as needed. File modes are preserved.
func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(dst), dirPermissions); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}

	if info.IsDir() {
		return copyTree(src, dst)
	}

	return copyFile(src, dst, info.Mode())
}

// copyTree recursively copies a directory.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err = copyTree(srcPath, dstPath); err != nil {
				return err
			}

			continue
		}

		entryInfo, err := entry.Info()
		if err != nil {
			return err
		}

		if err = copyFile(srcPath, dstPath, entryInfo.Mode()); err != nil {
			return err
		}
	}

	return nil
}

// copyFile copies one regular file, preserving the provided mode.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}
