package fits

import (
	"strconv"
	"strings"
)

// Header defaults applied when a keyword is absent.
const (
	DefaultInstrument = "Unknown"
	DefaultPosition   = "00:00:00.0"
)

// Header is the ordered card list of a primary HDU with keyword lookup.
// When a keyword repeats, the first occurrence wins.
type Header struct {
	cards []Card
	index map[string]int
}

func newHeader(cards []Card) *Header {
	h := &Header{cards: cards, index: make(map[string]int, len(cards))}
	for i, c := range cards {
		if !c.valued {
			continue
		}
		if _, dup := h.index[c.Key]; !dup {
			h.index[c.Key] = i
		}
	}
	return h
}

// Cards returns every card in file order, including commentary cards.
func (h *Header) Cards() []Card {
	return h.cards
}

// Card returns the first value card for key.
func (h *Header) Card(key string) (Card, bool) {
	i, ok := h.index[strings.ToUpper(key)]
	if !ok {
		return Card{}, false
	}
	return h.cards[i], true
}

// String returns the value of key as text. An undefined value counts as absent.
func (h *Header) String(key string) (string, bool) {
	c, ok := h.Card(key)
	if !ok || (!c.quoted && c.Value == "") {
		return "", false
	}
	return c.Value, true
}

// Float returns the value of key as a real. Quoted numbers and D exponents are accepted.
func (h *Header) Float(key string) (float64, bool) {
	s, ok := h.String(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(strings.TrimSpace(s)), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the value of key as an integer. Integral reals such as 4096.0 are accepted.
func (h *Header) Int(key string) (int, bool) {
	s, ok := h.String(key)
	if !ok {
		return 0, false
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n, true
	}
	f, ok := h.Float(key)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// Bool returns a logical value written as T or F.
func (h *Header) Bool(key string) (value, present bool) {
	s, ok := h.String(key)
	if !ok {
		return false, false
	}
	switch strings.TrimSpace(s) {
	case "T":
		return true, true
	case "F":
		return false, true
	default:
		return false, false
	}
}

// DateObs returns DATE-OBS, "" when absent.
func (h *Header) DateObs() (string, bool) {
	return h.String("DATE-OBS")
}

// Instrument returns INSTRUME, "Unknown" when absent.
func (h *Header) Instrument() (string, bool) {
	if s, ok := h.String("INSTRUME"); ok {
		return s, true
	}
	return DefaultInstrument, false
}

// ExpTime returns EXPTIME in seconds, 0 when absent.
func (h *Header) ExpTime() (float64, bool) {
	return h.Float("EXPTIME")
}

// Exposure returns EXPOSURE in seconds, 0 when absent.
func (h *Header) Exposure() (float64, bool) {
	return h.Float("EXPOSURE")
}

// Temperature returns the sensor temperature TEMPERAT, nil when absent.
func (h *Header) Temperature() (*float64, bool) {
	f, ok := h.Float("TEMPERAT")
	if !ok {
		return nil, false
	}
	return &f, true
}

// RA returns the right ascension text, "00:00:00.0" when absent.
func (h *Header) RA() (string, bool) {
	if s, ok := h.String("RA"); ok {
		return s, true
	}
	return DefaultPosition, false
}

// Dec returns the declination text, "00:00:00.0" when absent.
func (h *Header) Dec() (string, bool) {
	if s, ok := h.String("DEC"); ok {
		return s, true
	}
	return DefaultPosition, false
}

// NAxis returns the number of data axes, 0 when absent.
func (h *Header) NAxis() (int, bool) {
	return h.Int("NAXIS")
}

// NAxis1 returns the image width in pixels, 0 when absent.
func (h *Header) NAxis1() (int, bool) {
	return h.Int("NAXIS1")
}

// NAxis2 returns the image height in pixels, 0 when absent.
func (h *Header) NAxis2() (int, bool) {
	return h.Int("NAXIS2")
}

// Bitpix returns the data type code.
func (h *Header) Bitpix() (int, bool) {
	return h.Int("BITPIX")
}
