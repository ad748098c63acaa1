package fits

import (
	"strconv"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/tphakala/asteroid-catalog/internal/errors"
)

// ParseRA converts a right ascension written as "HH:MM:SS.s" or "HH MM SS.s"
// into an angle. A bare decimal number is taken as degrees.
func ParseRA(s string) (unit.RA, error) {
	s = strings.TrimSpace(s)
	if deg, err := strconv.ParseFloat(s, 64); err == nil {
		if deg < 0 || deg >= 360 {
			return 0, positionError("ra", s, "degrees out of range")
		}
		return unit.RAFromDeg(deg), nil
	}

	neg, h, m, sec, err := splitSexagesimal(s)
	if err != nil || neg {
		return 0, positionError("ra", s, "expected HH:MM:SS.s")
	}
	if h > 23 || m > 59 || sec >= 60 {
		return 0, positionError("ra", s, "component out of range")
	}
	return unit.NewRA(h, m, sec), nil
}

// ParseDec converts a declination written as "+DD:MM:SS.s" or "-DD MM SS.s"
// into an angle. A bare decimal number is taken as degrees.
func ParseDec(s string) (unit.Angle, error) {
	s = strings.TrimSpace(s)
	if deg, err := strconv.ParseFloat(s, 64); err == nil {
		if deg < -90 || deg > 90 {
			return 0, positionError("dec", s, "degrees out of range")
		}
		return unit.AngleFromDeg(deg), nil
	}

	neg, d, m, sec, err := splitSexagesimal(s)
	if err != nil {
		return 0, positionError("dec", s, "expected +DD:MM:SS.s")
	}
	if d > 90 || m > 59 || sec >= 60 || (d == 90 && (m > 0 || sec > 0)) {
		return 0, positionError("dec", s, "component out of range")
	}

	sign := byte(' ')
	if neg {
		sign = '-'
	}
	return unit.NewAngle(sign, d, m, sec), nil
}

// PositionDegrees returns RA and Dec in degrees; either is nil when unparsable.
func PositionDegrees(ra, dec string) (raDeg, decDeg *float64) {
	if a, err := ParseRA(ra); err == nil {
		v := a.Deg()
		raDeg = &v
	}
	if d, err := ParseDec(dec); err == nil {
		v := d.Deg()
		decDeg = &v
	}
	return raDeg, decDeg
}

// splitSexagesimal splits "[+-]A:B:C" or "[+-]A B C". The sign is returned
// separately so that "-00:30:00" keeps it.
func splitSexagesimal(s string) (neg bool, a, b int, c float64, err error) {
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == ' ' })
	if len(parts) != 3 {
		return false, 0, 0, 0, errors.NewStd("expected three components")
	}
	if a, err = strconv.Atoi(parts[0]); err != nil || a < 0 {
		return false, 0, 0, 0, errors.NewStd("bad first component")
	}
	if b, err = strconv.Atoi(parts[1]); err != nil || b < 0 {
		return false, 0, 0, 0, errors.NewStd("bad second component")
	}
	if c, err = strconv.ParseFloat(parts[2], 64); err != nil || c < 0 {
		return false, 0, 0, 0, errors.NewStd("bad third component")
	}
	return neg, a, b, c, nil
}

func positionError(axis, value, reason string) error {
	return errors.Newf("invalid %s %q: %s", axis, value, reason).
		Component("fits").
		Category(errors.CategoryValidation).
		Context("axis", axis).
		Build()
}
