package inspect

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/asteroid-catalog/internal/fits"
	"github.com/tphakala/asteroid-catalog/internal/testutil"
)

func writeFrame(t *testing.T, b *testutil.FITSBuilder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ZTF001_20230101.fits")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o600))
	return path
}

func TestRunPrintsHeaderAndStats(t *testing.T) {
	path := writeFrame(t, testutil.NewFITS().
		Image(16, 3, 2, []float64{0, 1, 2, 3, 4, 5}).
		Observation("2023-01-01T03:04:05.123", "Alta U9000").
		Card("OBJECT", "O'Hara").
		RawCard("EXPOSURE=               1.5D1 / seconds").
		RawCard("COMMENT   written by a test"))

	var out bytes.Buffer
	require.NoError(t, Run(&out, path, false))

	text := out.String()
	assert.Contains(t, text, "SIMPLE  = T\n")
	assert.Contains(t, text, "NAXIS1  = 3\n")
	assert.Contains(t, text, "DATE-OBS= '2023-01-01T03:04:05.123'\n")
	assert.Contains(t, text, "INSTRUME= 'Alta U9000'\n")
	assert.Contains(t, text, "OBJECT  = 'O''Hara'\n")
	assert.Contains(t, text, "EXPOSURE= 1.5D1 / seconds\n")
	assert.Contains(t, text, "COMMENT  written by a test\n")
	assert.Contains(t, text, "image: 3 x 2, BITPIX 16, min 0, max 5, mean 2.5\n")
}

func TestRunHeaderOnly(t *testing.T) {
	path := writeFrame(t, testutil.NewFITS().
		Image(-32, 2, 2, []float64{1, 2, 3, 4}).
		Observation("2023-01-01", "Cam"))

	var out bytes.Buffer
	require.NoError(t, Run(&out, path, true))
	assert.Contains(t, out.String(), "INSTRUME= 'Cam'")
	assert.NotContains(t, out.String(), "image:")
}

func TestRunEmptyImage(t *testing.T) {
	path := writeFrame(t, testutil.NewFITS().Observation("2023-01-01", "Cam"))

	var out bytes.Buffer
	require.NoError(t, Run(&out, path, false))
	assert.Contains(t, out.String(), "image: none\n")
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer

	err := Run(&out, filepath.Join(t.TempDir(), "missing.fits"), false)
	require.Error(t, err)

	err = Run(&out, filepath.Join(t.TempDir(), "missing.fits"), true)
	require.Error(t, err)

	path := writeFrame(t, testutil.NewFITS().WithoutEnd())
	err = Run(&out, path, true)
	require.Error(t, err)
	assert.True(t, fits.IsFormatError(err))
}

func TestComputeStatsScaled(t *testing.T) {
	hdu, err := fits.Read(bytes.NewReader(testutil.NewFITS().
		Image(16, 2, 1, []float64{-32768, 100}).
		Card("BZERO", 32768.0).
		Bytes()))
	require.NoError(t, err)

	s := ComputeStats(hdu.Data)
	assert.InDelta(t, 0.0, s.Min, 1e-9)
	assert.InDelta(t, 32868.0, s.Max, 1e-9)
	assert.InDelta(t, 16434.0, s.Mean, 1e-9)
}
