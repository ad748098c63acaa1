package fits

import (
	"fmt"

	"github.com/tphakala/asteroid-catalog/internal/errors"
)

var (
	// ErrFormat marks files that are not a readable FITS primary HDU.
	ErrFormat = errors.NewStd("fits format error")

	// ErrDateParse marks DATE-OBS values that match none of the accepted layouts.
	ErrDateParse = errors.NewStd("unrecognised observation date")
)

// newFormatError builds a file-parsing error wrapping ErrFormat.
func newFormatError(operation, format string, args ...any) error {
	return errors.New(fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))).
		Component("fits").
		Category(errors.CategoryFileParsing).
		Context("operation", operation).
		Build()
}

// IsFormatError reports whether err was caused by a malformed FITS file.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrFormat)
}
