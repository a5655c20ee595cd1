package paradox

import "github.com/yamaru/paradox-db-tool/internal/errs"

// Error kinds returned by the package. Match with errors.Is; messages
// carry the concrete cause.
var (
	// ErrIO marks OS-level open and read failures.
	ErrIO = errs.ErrIO

	// ErrBadFormat marks structural violations of the Paradox layout.
	ErrBadFormat = errs.ErrBadFormat

	// ErrEncrypted marks an encrypted table opened without a password.
	ErrEncrypted = errs.ErrEncrypted

	// ErrBadPassword marks a password that fails the header checksum.
	ErrBadPassword = errs.ErrBadPassword

	// ErrInvalidHandle marks operations on a closed document.
	ErrInvalidHandle = errs.ErrInvalidHandle

	// ErrInvalidArgument marks malformed options rejected before I/O.
	ErrInvalidArgument = errs.ErrInvalidArgument
)
