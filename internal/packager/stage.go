package packager

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// stageDirPermissions is used for staging directories built by packagers.
const stageDirPermissions = 0o755

// StagePayload copies the build output into dir: a directory source
// becomes dir itself, a single-file source lands inside dir under its
// own name. Packagers that install the payload as an application
// directory use it so both output modes produce the same layout.
func StagePayload(src, dir string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if info.IsDir() {
		return StageTree(src, dir)
	}

	return StageTree(src, filepath.Join(dir, filepath.Base(src)))
}

// StageTree copies a file or directory tree into a staging location,
// creating parents as needed. Packagers use it to lay out the payload
// an external tool will consume.
func StageTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if err = os.MkdirAll(filepath.Dir(dst), stageDirPermissions); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}

	if info.IsDir() {
		return stageDir(src, dst)
	}

	return stageFile(src, dst, info.Mode())
}

func stageDir(src, dst string) error {
	if err := os.MkdirAll(dst, stageDirPermissions); err != nil {
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
			if err = stageDir(srcPath, dstPath); err != nil {
				return err
			}

			continue
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		if err = stageFile(srcPath, dstPath, info.Mode()); err != nil {
			return err
		}
	}

	return nil
}

func stageFile(src, dst string, mode os.FileMode) error {
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
