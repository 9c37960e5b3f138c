package types

import "errors"

/*
Error kinds returned by ledger operations. Operations wrap these with
context, use errors.Is to test for the kind. A failed operation never
changes state nor emits events.
*/
var (
	// ErrUnauthorized - caller lacks the role required by the operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound - referenced token doesn't exist or has been burned.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument - empty/zero value where non-empty/non-zero is required.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInsufficientPayment - neither credit nor adequate payment present.
	ErrInsufficientPayment = errors.New("insufficient payment")
)

// ErrorKind returns the error kind name of err, "" when err is not one of
// the operation error kinds.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgument"
	case errors.Is(err, ErrInsufficientPayment):
		return "InsufficientPayment"
	}
	return ""
}
