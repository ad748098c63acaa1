package fits

import (
	"strings"
	"time"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// DateLayouts are the accepted DATE-OBS layouts in priority order.
var DateLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"06/01/02", // legacy yy/mm/dd
}

// ParseDateObs parses a DATE-OBS value, trying DateLayouts in order. The result
// is interpreted in loc, time.Local when loc is nil.
func ParseDateObs(s string, loc *time.Location) (*time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	value := strings.TrimSpace(s)
	if value == "" {
		return nil, newDateParseError(s, "empty value")
	}

	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, newDateParseError(s, "no accepted layout matched")
}

// ParseDate is ParseDateObs for callers that only need the value: failures are
// logged and yield nil.
func ParseDate(s string, loc *time.Location, log logger.Logger) *time.Time {
	t, err := ParseDateObs(s, loc)
	if err != nil {
		if log != nil {
			log.Error("failed to parse observation date",
				logger.String("value", s),
				logger.Error(err))
		}
		return nil
	}
	return t
}

func newDateParseError(value, reason string) error {
	return errors.Newf("%w: %q: %s", ErrDateParse, value, reason).
		Component("fits").
		Category(errors.CategoryDateParse).
		Context("value", value).
		Build()
}
