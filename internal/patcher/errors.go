package patcher

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrAlreadyPatched is returned when the loaded executable already carries
	// the patch marker. Nothing is written.
	ErrAlreadyPatched = errors.New("executable is already patched")
	// ErrIO marks every failure to read, write, copy or rename a file.
	ErrIO = errors.New("file system error")
	// ErrNoBackup is returned by restore when there is no backup to restore from.
	ErrNoBackup = errors.New("backup not found")
	// ErrUnsupportedVersion is returned when the executable's version is outside
	// the supported range of its build variant and the check was not overridden.
	ErrUnsupportedVersion = errors.New("unsupported executable version")
	// ErrInvalidState is returned when a session step is called out of order.
	ErrInvalidState = errors.New("invalid session state")
	// ErrUnknownHook is returned when a descriptor names a replacement function
	// that is not registered.
	ErrUnknownHook = errors.New("unknown replacement function")
)

// ioError wraps err with a message and marks it ErrIO.
func ioError(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrIO)
}
