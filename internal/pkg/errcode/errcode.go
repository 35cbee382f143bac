package errcode

import appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrUnavailable
)

// FromError maps an error kind to its numeric code. nil maps to 0.
func FromError(err error) int {
	switch {
	case err == nil:
		return 0
	case appErr.IsNotFound(err):
		return ErrNotFound
	case appErr.IsInvalid(err):
		return ErrInvalid
	case appErr.IsConflict(err):
		return ErrConflict
	case appErr.IsUnavailable(err):
		return ErrUnavailable
	default:
		return ErrUnknown
	}
}
