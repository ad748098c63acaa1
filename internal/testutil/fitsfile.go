// Package testutil provides shared test utilities for the asteroid catalog.
// FITSBuilder produces small, standard-conforming FITS files in memory.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// FITSBuilder assembles a primary HDU card by card.
type FITSBuilder struct {
	cards  []string
	bitpix int
	width  int
	height int
	pixels []float64
	noEnd  bool
}

// NewFITS starts a file with SIMPLE = T and BITPIX = 16, NAXIS = 0.
func NewFITS() *FITSBuilder {
	return &FITSBuilder{bitpix: 16}
}

// Card appends a keyword. Strings are quoted, bools become T/F, numbers are
// written as FITS integers or reals.
func (b *FITSBuilder) Card(key string, value any) *FITSBuilder {
	var v string
	switch x := value.(type) {
	case string:
		v = fmt.Sprintf("'%-8s'", strings.ReplaceAll(x, "'", "''"))
	case bool:
		v = fmt.Sprintf("%20s", map[bool]string{true: "T", false: "F"}[x])
	case int:
		v = fmt.Sprintf("%20d", x)
	case float64:
		v = fmt.Sprintf("%20s", formatReal(x))
	default:
		panic(fmt.Sprintf("testutil: unsupported card value %T", value))
	}
	b.cards = append(b.cards, fmt.Sprintf("%-8s= %s", key, v))
	return b
}

// RawCard appends a card verbatim, padded to 80 characters.
func (b *FITSBuilder) RawCard(card string) *FITSBuilder {
	b.cards = append(b.cards, card)
	return b
}

// Image sets a 2-D data array written with the given BITPIX.
func (b *FITSBuilder) Image(bitpix, width, height int, pixels []float64) *FITSBuilder {
	b.bitpix, b.width, b.height, b.pixels = bitpix, width, height, pixels
	return b
}

// WithoutEnd omits the END card to produce a malformed header.
func (b *FITSBuilder) WithoutEnd() *FITSBuilder {
	b.noEnd = true
	return b
}

// Observation adds the keywords a camera writes for a typical frame.
func (b *FITSBuilder) Observation(dateObs, instrument string) *FITSBuilder {
	return b.Card("DATE-OBS", dateObs).
		Card("INSTRUME", instrument).
		Card("EXPTIME", 30.0).
		Card("EXPOSURE", 30.0).
		Card("TEMPERAT", -20.12345).
		Card("RA", "12:30:00.0").
		Card("DEC", "-05:15:00.0")
}

// Bytes renders the HDU padded to whole blocks.
func (b *FITSBuilder) Bytes() []byte {
	var header []string
	header = append(header, fmt.Sprintf("%-8s= %20s", "SIMPLE", "T"))
	header = append(header, fmt.Sprintf("%-8s= %20d", "BITPIX", b.bitpix))
	if b.pixels == nil {
		header = append(header, fmt.Sprintf("%-8s= %20d", "NAXIS", 0))
	} else {
		header = append(header,
			fmt.Sprintf("%-8s= %20d", "NAXIS", 2),
			fmt.Sprintf("%-8s= %20d", "NAXIS1", b.width),
			fmt.Sprintf("%-8s= %20d", "NAXIS2", b.height))
	}
	header = append(header, b.cards...)
	if !b.noEnd {
		header = append(header, "END")
	}

	var buf bytes.Buffer
	for _, c := range header {
		buf.WriteString(fmt.Sprintf("%-80s", c)[:cardSize])
	}
	pad(&buf, ' ')

	if b.pixels != nil {
		for _, p := range b.pixels {
			writePixel(&buf, b.bitpix, p)
		}
		pad(&buf, 0)
	}
	return buf.Bytes()
}

// WriteFile writes the rendered HDU into fs.
func (b *FITSBuilder) WriteFile(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, b.Bytes(), 0o644))
}

func pad(buf *bytes.Buffer, fill byte) {
	if rem := buf.Len() % blockSize; rem != 0 {
		buf.Write(bytes.Repeat([]byte{fill}, blockSize-rem))
	}
}

func formatReal(f float64) string {
	s := fmt.Sprintf("%G", f)
	if !strings.ContainsAny(s, ".E") {
		s += ".0"
	}
	return s
}

func writePixel(buf *bytes.Buffer, bitpix int, v float64) {
	var scratch [8]byte
	switch bitpix {
	case 8:
		buf.WriteByte(byte(v))
	case 16:
		binary.BigEndian.PutUint16(scratch[:2], uint16(int16(v)))
		buf.Write(scratch[:2])
	case 32:
		binary.BigEndian.PutUint32(scratch[:4], uint32(int32(v)))
		buf.Write(scratch[:4])
	case 64:
		binary.BigEndian.PutUint64(scratch[:8], uint64(int64(v)))
		buf.Write(scratch[:8])
	case -32:
		binary.BigEndian.PutUint32(scratch[:4], math.Float32bits(float32(v)))
		buf.Write(scratch[:4])
	case -64:
		binary.BigEndian.PutUint64(scratch[:8], math.Float64bits(v))
		buf.Write(scratch[:8])
	default:
		panic(fmt.Sprintf("testutil: unsupported BITPIX %d", bitpix))
	}
}
