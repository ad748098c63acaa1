// Package securefs provides a secure file system implementation
// with path validation and sandboxing.
package securefs

import (
	"github.com/tphakala/asteroid-catalog/internal/errors"
)

// Sentinel errors for the securefs package.
var (
	// ErrPathTraversal indicates an attempt to leave the base directory,
	// for example with "../" or a path separator in a bare file name.
	ErrPathTraversal = errors.NewStd("security error: path attempts to traverse outside base directory")

	// ErrInvalidPath indicates an invalid path specification such as an
	// absolute path where a relative one is required.
	ErrInvalidPath = errors.NewStd("security error: invalid path specification")

	// ErrNotRegularFile indicates an attempt to read something that is not a regular file.
	ErrNotRegularFile = errors.NewStd("security error: not a regular file")
)

// validationError records a rejected path as a validation error.
func validationError(sentinel error, path, reason string) error {
	return errors.Newf("%w: %q: %s", sentinel, path, reason).
		Component("securefs").
		Category(errors.CategoryValidation).
		Context("path", path).
		Build()
}
