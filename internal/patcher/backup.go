package patcher

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// copyFile copies src over dst through a temporary file renamed into place.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return ioError(err, "opening %s", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return ioError(err, "reading %s", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return ioError(err, "creating %s", dst)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return ioError(err, "copying %s to %s", src, dst)
	}
	if err := tmp.Close(); err != nil {
		return ioError(err, "writing %s", dst)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return ioError(err, "writing %s", dst)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return ioError(err, "replacing %s", dst)
	}
	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, ioError(err, "checking %s", path)
}

// ensureBackup copies exe to backup unless a backup already exists. An
// existing backup is never overwritten: it is the only unpatched copy once the
// executable has been patched.
func ensureBackup(exe, backup string) (created bool, err error) {
	ok, err := exists(backup)
	if err != nil || ok {
		return false, err
	}
	if err := copyFile(exe, backup); err != nil {
		return false, err
	}
	return true, nil
}

// RestoreOptions locate the executable and its backup.
type RestoreOptions struct {
	ExePath    string
	BackupPath string
}

// Restore copies the backup back over the executable byte for byte.
func Restore(opts RestoreOptions) error {
	ok, err := exists(opts.BackupPath)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNoBackup, "%s", opts.BackupPath)
	}
	return copyFile(opts.BackupPath, opts.ExePath)
}

// copyRequiredFiles copies each named file from appDir into dir.
func copyRequiredFiles(appDir, dir string, files []string) error {
	for _, name := range files {
		if err := copyFile(filepath.Join(appDir, name), filepath.Join(dir, name)); err != nil {
			return errors.Wrap(err, "copying required files")
		}
	}
	return nil
}
