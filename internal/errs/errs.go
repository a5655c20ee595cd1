// Package errs defines the error kinds surfaced by the decoder.
//
// Every error returned by the engine is marked with exactly one of the
// sentinel kinds below so callers can classify failures with errors.Is
// while the message keeps the concrete cause.
package errs

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrIO marks operating system open/read failures.
	ErrIO = errors.New("i/o error")

	// ErrBadFormat marks structural violations of the on-disk layout.
	ErrBadFormat = errors.New("bad file format")

	// ErrEncrypted marks an encrypted file opened without a password.
	ErrEncrypted = errors.New("password protected")

	// ErrBadPassword marks a password whose checksum does not match the
	// header encryption word.
	ErrBadPassword = errors.New("Incorrect password")

	// ErrInvalidHandle marks operations on a closed document.
	ErrInvalidHandle = errors.New("invalid document handle")

	// ErrInvalidArgument marks malformed options rejected before any I/O.
	ErrInvalidArgument = errors.New("invalid argument")
)

// IO wraps an OS-level failure for path with the ErrIO kind.
func IO(path string, cause error) error {
	return errors.Mark(errors.Wrapf(cause, "reading %s", path), ErrIO)
}

// NotFound reports a missing input file with the ErrIO kind. The
// message text is contractual.
func NotFound(path string) error {
	return errors.Mark(errors.Newf("File not found: %s", path), ErrIO)
}

// BadFormatf reports a structural violation at the given file offset.
func BadFormatf(offset int64, format string, args ...interface{}) error {
	return errors.Mark(
		errors.Newf("offset 0x%X: "+format, append([]interface{}{offset}, args...)...),
		ErrBadFormat)
}

// InvalidArgumentf reports a malformed option before any I/O happens.
func InvalidArgumentf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidArgument)
}
