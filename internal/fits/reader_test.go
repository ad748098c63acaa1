package fits

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/testutil"
)

func TestReadHeaderTypedAccessors(t *testing.T) {
	data := testutil.NewFITS().
		Observation("2023-01-01T03:04:05.123", "ZWO ASI6200").
		Card("NAXIS1", 6248).
		Card("NAXIS2", 4176).
		Card("OBJECT", "O'Hara").
		RawCard("COMMENT   written by a test").
		Bytes()

	h, err := ReadHeader(bytes.NewReader(data))
	require.NoError(t, err)

	date, ok := h.DateObs()
	assert.True(t, ok)
	assert.Equal(t, "2023-01-01T03:04:05.123", date)

	inst, ok := h.Instrument()
	assert.True(t, ok)
	assert.Equal(t, "ZWO ASI6200", inst)

	exp, ok := h.ExpTime()
	assert.True(t, ok)
	assert.InDelta(t, 30.0, exp, 1e-9)

	temp, ok := h.Temperature()
	require.True(t, ok)
	assert.InDelta(t, -20.12345, *temp, 1e-9)

	ra, ok := h.RA()
	assert.True(t, ok)
	assert.Equal(t, "12:30:00.0", ra)

	n1, ok := h.NAxis1()
	assert.True(t, ok)
	assert.Equal(t, 6248, n1)

	obj, ok := h.String("OBJECT")
	assert.True(t, ok)
	assert.Equal(t, "O'Hara", obj, "doubled quotes collapse")

	simple, ok := h.Bool("SIMPLE")
	assert.True(t, ok)
	assert.True(t, simple)
}

func TestHeaderDefaults(t *testing.T) {
	h, err := ReadHeader(bytes.NewReader(testutil.NewFITS().Bytes()))
	require.NoError(t, err)

	date, ok := h.DateObs()
	assert.False(t, ok)
	assert.Empty(t, date)

	inst, ok := h.Instrument()
	assert.False(t, ok)
	assert.Equal(t, "Unknown", inst)

	exp, ok := h.Exposure()
	assert.False(t, ok)
	assert.Zero(t, exp)

	temp, ok := h.Temperature()
	assert.False(t, ok)
	assert.Nil(t, temp)

	ra, _ := h.RA()
	dec, _ := h.Dec()
	assert.Equal(t, "00:00:00.0", ra)
	assert.Equal(t, "00:00:00.0", dec)

	n2, ok := h.NAxis2()
	assert.False(t, ok)
	assert.Zero(t, n2)
}

func TestHeaderNumericVariants(t *testing.T) {
	h, err := ReadHeader(bytes.NewReader(testutil.NewFITS().
		Card("EXPTIME", "30.5").
		RawCard("EXPOSURE=               1.5D1 / seconds").
		RawCard("NAXIS1  =               4096.0").
		RawCard("UNDEF   =                      / no value").
		Card("EXPTIME", 99.0).
		Bytes()))
	require.NoError(t, err)

	exp, ok := h.ExpTime()
	assert.True(t, ok)
	assert.InDelta(t, 30.5, exp, 1e-9, "quoted numbers accepted, first occurrence wins")

	exposure, ok := h.Exposure()
	assert.True(t, ok)
	assert.InDelta(t, 15.0, exposure, 1e-9)

	card, ok := h.Card("exposure")
	require.True(t, ok)
	assert.Equal(t, "seconds", card.Comment)

	n1, ok := h.NAxis1()
	assert.True(t, ok)
	assert.Equal(t, 4096, n1)

	_, ok = h.String("UNDEF")
	assert.False(t, ok)
}

func TestReadImage(t *testing.T) {
	bitpixes := []int{8, 16, 32, 64, -32, -64}
	pixels := []float64{0, 1, 2, 3, 4, 5}

	for _, bitpix := range bitpixes {
		t.Run(fmt.Sprintf("bitpix_%d", bitpix), func(t *testing.T) {
			data := testutil.NewFITS().Image(bitpix, 3, 2, pixels).Bytes()

			hdu, err := Read(bytes.NewReader(data))
			require.NoError(t, err)
			require.NotNil(t, hdu.Data)

			assert.Equal(t, 3, hdu.Data.Width)
			assert.Equal(t, 2, hdu.Data.Height)
			assert.Equal(t, bitpix, hdu.Data.Bitpix)
			assert.InDelta(t, 5.0, hdu.Data.At(2, 1), 1e-6)
			assert.InDelta(t, 1.0, hdu.Data.At(1, 0), 1e-6)
		})
	}
}

func TestReadImageScaling(t *testing.T) {
	data := testutil.NewFITS().
		Image(16, 2, 1, []float64{-32768, 100}).
		Card("BZERO", 32768.0).
		Card("BSCALE", 2.0).
		Bytes()

	hdu, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.InDelta(t, 32768-65536.0, hdu.Data.At(0, 0), 1e-9)
	assert.InDelta(t, 32768+200.0, hdu.Data.At(1, 0), 1e-9)
}

func TestReadEmptyImage(t *testing.T) {
	hdu, err := Read(bytes.NewReader(testutil.NewFITS().Bytes()))
	require.NoError(t, err)
	assert.True(t, hdu.Data.Empty())
}

func TestReadFormatErrors(t *testing.T) {
	valid := testutil.NewFITS().Image(16, 4, 4, make([]float64, 16)).Bytes()
	notSimple := bytes.Replace(testutil.NewFITS().Bytes(), []byte("SIMPLE  "), []byte("XTENSION"), 1)
	simpleF := bytes.Replace(testutil.NewFITS().Bytes(), []byte("                   T"), []byte("                   F"), 1)
	badBitpix := bytes.Replace(testutil.NewFITS().Image(16, 1, 1, []float64{1}).Bytes(),
		[]byte("BITPIX  =                   16"), []byte("BITPIX  =                   12"), 1)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short block", valid[:1000]},
		{"missing SIMPLE", notSimple},
		{"SIMPLE false", simpleF},
		{"missing END", testutil.NewFITS().WithoutEnd().Bytes()},
		{"truncated data", valid[:BlockSize+10]},
		{"bad BITPIX", badBitpix},
		{"unterminated string", testutil.NewFITS().RawCard("OBJECT  = 'no end").Bytes()},
		{"text file", []byte(strings.Repeat("hello world\n", 400))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.True(t, IsFormatError(err), "got %v", err)
			assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
		})
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.fits")
	require.NoError(t, os.WriteFile(path, testutil.NewFITS().Observation("2023-01-01", "X").Bytes(), 0o600))

	hdu, err := Open(path)
	require.NoError(t, err)
	inst, _ := hdu.Header.Instrument()
	assert.Equal(t, "X", inst)

	_, err = Open(filepath.Join(t.TempDir(), "missing.fits"))
	require.Error(t, err)
	assert.False(t, IsFormatError(err))
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}
