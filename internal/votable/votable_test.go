package votable

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/fits"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
	"github.com/tphakala/asteroid-catalog/internal/securefs"
	"github.com/tphakala/asteroid-catalog/internal/testutil"
)

type memStore map[uint]datastore.Observation

func (m memStore) GetObservation(_ context.Context, id uint) (*datastore.Observation, error) {
	o, ok := m[id]
	if !ok {
		return nil, errors.Newf("%w: observation %d", datastore.ErrNotFound, id).
			Category(errors.CategoryNotFound).
			Build()
	}
	return &o, nil
}

func newExporter(t *testing.T, files map[string][]byte, store memStore) (*Exporter, *metrics.TestRecorder) {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	sfs, err := securefs.New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sfs.Close() })

	recorder := metrics.NewTestRecorder()
	return NewExporter(store, sfs, "https://catalog.example.org/", recorder), recorder
}

func fieldNames(d *Document) (names, ucds []string) {
	for _, f := range d.Resource.Table.Fields {
		names = append(names, f.Name)
		ucds = append(ucds, f.UCD)
	}
	return names, ucds
}

func TestExportFullHeader(t *testing.T) {
	data := testutil.NewFITS().
		Image(16, 3, 2, make([]float64, 6)).
		Observation("2023-01-01T03:04:05.123", "Alta U9000").
		Bytes()
	exp, recorder := newExporter(t,
		map[string][]byte{"ZTF001_20230101.fits": data},
		memStore{7: {ID: 7, Filename: "ZTF001_20230101.fits", DateObs: time.Now()}})

	doc, err := exp.Export(t.Context(), 7)
	require.NoError(t, err)

	want := map[string]string{
		"date_obs":    "2023-01-01T03:04:05.123",
		"naxis1":      "3",
		"naxis2":      "2",
		"temperature": "-20.12345",
		"exptime":     "30",
		"exposure":    "30",
		"ra":          "12:30:00.0",
		"dec":         "-05:15:00.0",
		"fits_link":   "https://catalog.example.org/download/fits/ZTF001_20230101.fits",
	}
	for name, value := range want {
		got, ok := doc.Value(name)
		assert.True(t, ok, name)
		assert.Equal(t, value, got, name)
	}
	assert.Equal(t, "observation_7.xml", doc.Resource.Name)
	assert.Equal(t, 1, recorder.OperationCount(metrics.OpExport, metrics.StatusSuccess))
}

func TestExportFieldsIndependentOfHeader(t *testing.T) {
	full := testutil.NewFITS().Image(16, 1, 1, []float64{0}).Observation("2023-01-01", "Cam").Bytes()
	bare := testutil.NewFITS().Bytes()
	exp, _ := newExporter(t,
		map[string][]byte{"full.fits": full, "bare.fits": bare},
		memStore{1: {ID: 1, Filename: "full.fits"}, 2: {ID: 2, Filename: "bare.fits"}})

	a, err := exp.Export(t.Context(), 1)
	require.NoError(t, err)
	b, err := exp.Export(t.Context(), 2)
	require.NoError(t, err)

	namesA, ucdsA := fieldNames(a)
	namesB, ucdsB := fieldNames(b)
	assert.Equal(t, namesA, namesB)
	assert.Equal(t, ucdsA, ucdsB)
	assert.Equal(t, []string{"date_obs", "naxis1", "naxis2", "temperature", "exptime", "exposure", "ra", "dec", "fits_link"}, namesA)
	assert.Equal(t, []string{
		"time.epoch;obs",
		"instr.pixel;pos.cartesian.x",
		"instr.pixel;pos.cartesian.y",
		"phys.temperature;instr",
		"time.duration;obs.exposure",
		"time.duration;obs.exposure",
		"pos.eq.ra;meta.main",
		"pos.eq.dec;meta.main",
		"meta.ref.url",
	}, ucdsA)

	require.Len(t, b.Resource.Table.Rows, 1)
	assert.Equal(t, []string{
		"", "0", "0", "", "0", "0", "00:00:00.0", "00:00:00.0",
		"https://catalog.example.org/download/fits/bare.fits",
	}, b.Resource.Table.Rows[0].Cells)
}

func TestExportFailures(t *testing.T) {
	exp, recorder := newExporter(t,
		map[string][]byte{"corrupt.fits": []byte("garbage")},
		memStore{
			1: {ID: 1, Filename: "gone.fits"},
			2: {ID: 2, Filename: "corrupt.fits"},
			3: {ID: 3, Filename: "../escape.fits"},
		})

	_, err := exp.Export(t.Context(), 99)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = exp.Export(t.Context(), 1)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.ErrorIs(t, err, ErrFileMissing)

	_, err = exp.Export(t.Context(), 2)
	require.Error(t, err)
	assert.True(t, fits.IsFormatError(err))

	_, err = exp.Export(t.Context(), 3)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	assert.Equal(t, 4, recorder.OperationCount(metrics.OpExport, metrics.StatusError))
}

func TestEncode(t *testing.T) {
	values := []string{"2023-01-01", "1", "2", "", "30", "30", "1:2:3", "-4:5:6", "http://x/download/fits/a%20b.fits"}
	doc, err := NewDocument("observation_1.xml", values)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf))
	out := buf.String()

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(xml.Header)))
	assert.Contains(t, out, `<VOTABLE version="1.4" xmlns="http://www.ivoa.net/xml/VOTable/v1.3">`)
	assert.Contains(t, out, `<FIELD name="date_obs" datatype="char" arraysize="*" ucd="time.epoch;obs">`)
	assert.Contains(t, out, `<FIELD name="naxis1" datatype="int" ucd="instr.pixel;pos.cartesian.x" unit="pix">`)
	assert.Contains(t, out, `<DESCRIPTION>Sensor temperature</DESCRIPTION>`)
	assert.Contains(t, out, `<TD></TD>`)

	var decoded struct {
		Fields []struct {
			Name string `xml:"name,attr"`
		} `xml:"RESOURCE>TABLE>FIELD"`
		Cells []string `xml:"RESOURCE>TABLE>DATA>TABLEDATA>TR>TD"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Fields, len(Fields))
	for i, f := range Fields {
		assert.Equal(t, f.Name, decoded.Fields[i].Name)
	}
	assert.Equal(t, values, decoded.Cells)

	_, err = NewDocument("x", values[:3])
	require.Error(t, err)
}

func TestFITSLinkEscapesName(t *testing.T) {
	exp := NewExporter(memStore{}, nil, "http://localhost:8080", nil)
	assert.Equal(t, "http://localhost:8080/download/fits/a%20b.fits", exp.FITSLink("a b.fits"))
	assert.Equal(t, "observation_12.xml", Filename(12))
}
