package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/votable"
)

type stubExporter struct {
	doc *votable.Document
	err error
}

func (s stubExporter) Export(context.Context, uint) (*votable.Document, error) {
	return s.doc, s.err
}

func testDocument(t *testing.T) *votable.Document {
	t.Helper()
	doc, err := votable.NewDocument("observation_7.xml",
		[]string{"2023-01-01T00:00:00", "0", "0", "", "30", "30", "12:30:00.0", "-05:15:00.0", "http://x/download/fits/a.fits"})
	require.NoError(t, err)
	return doc
}

func TestRunToStdout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(t.Context(), stubExporter{doc: testDocument(t)}, 7, afero.NewMemMapFs(), "", &out))
	assert.Contains(t, out.String(), "<VOTABLE")
	assert.Contains(t, out.String(), "<TD>12:30:00.0</TD>")
}

func TestRunToFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	var out bytes.Buffer
	require.NoError(t, Run(t.Context(), stubExporter{doc: testDocument(t)}, 7, fs, "out/obs.xml", &out))

	data, err := afero.ReadFile(fs, "out/obs.xml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<VOTABLE")
	assert.Contains(t, out.String(), "wrote out/obs.xml")
}

func TestRunExportError(t *testing.T) {
	notFound := errors.Newf("observation 7 not found").Category(errors.CategoryNotFound).Build()
	var out bytes.Buffer
	err := Run(t.Context(), stubExporter{err: notFound}, 7, afero.NewMemMapFs(), "", &out)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, out.String())
}
