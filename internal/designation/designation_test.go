package designation

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/asteroid-catalog/internal/logger"
)

func TestResolve(t *testing.T) {
	official, ok, status := Resolve("2022AB1", Mapping{})
	assert.False(t, ok)
	assert.Empty(t, official)
	assert.Equal(t, StatusNotConfirmed, status)

	official, ok, status = Resolve("2022AB1", Mapping{"2022AB1": "2022 AB1"})
	assert.True(t, ok)
	assert.Equal(t, "2022 AB1", official)
	assert.Equal(t, StatusConfirmed, status)

	_, ok, status = Resolve("2022AB1", nil)
	assert.False(t, ok)
	assert.Equal(t, StatusNotConfirmed, status)
}

func TestLoadMapping(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "provisional name , OFFICIAL NAME\n" +
		" ZTF001 , 2023 AA1 \n" +
		"\n" +
		"P21abcd,2022 AB1\n" +
		"incomplete\n" +
		" , \n" +
		"ZTF001,2023 AA2\n"
	require.NoError(t, afero.WriteFile(fs, "/data/mappings.csv", []byte(content), 0o644))

	m, err := LoadMapping(fs, "/data/mappings.csv", nil)
	require.NoError(t, err)

	assert.Equal(t, Mapping{
		"ZTF001":  "2023 AA2",
		"P21abcd": "2022 AB1",
	}, m)
}

func TestLoadMappingWithoutHeader(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "m.csv", []byte("ZTF001,2023 AA1\n"), 0o644))

	m, err := LoadMapping(fs, "m.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, "2023 AA1", m["ZTF001"])
}

func TestLoadMappingMissingFile(t *testing.T) {
	_, err := LoadMapping(afero.NewMemMapFs(), "missing.csv", nil)
	require.Error(t, err)
}

func TestResolverMissingFileWarnsOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)

	r := NewResolver(afero.NewMemMapFs(), "missing.csv", log)
	for range 3 {
		_, ok, status := r.Resolve("ZTF001")
		assert.False(t, ok)
		assert.Equal(t, StatusNotConfirmed, status)
	}

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("designation mapping unavailable")))
	assert.Zero(t, r.Len())
}

func TestResolverLoadsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "m.csv", []byte("Provisional Name,Official Name\nZTF001,2023 AA1\n"), 0o644))

	r := NewResolver(fs, "m.csv", nil)
	official, ok, status := r.Resolve("ZTF001")
	assert.True(t, ok)
	assert.Equal(t, "2023 AA1", official)
	assert.Equal(t, StatusConfirmed, status)
	assert.Equal(t, 1, r.Len())
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(Mapping{"A": "B"})
	official, ok, _ := r.Resolve("A")
	assert.True(t, ok)
	assert.Equal(t, "B", official)
}

func TestWriteMappings(t *testing.T) {
	fs := afero.NewMemMapFs()
	pairs := []Pair{{Provisional: "P21abcd", Official: "2022 AB1"}}

	require.NoError(t, WriteMappings(fs, "out.csv", pairs, false))
	require.NoError(t, WriteMappings(fs, "out.csv", []Pair{{Provisional: "C0XYZ12", Official: "2022 AC"}}, true))

	data, err := afero.ReadFile(fs, "out.csv")
	require.NoError(t, err)
	assert.Equal(t, "Provisional Name,Official Name\nP21abcd,2022 AB1\nC0XYZ12,2022 AC\n", string(data))

	require.NoError(t, WriteMappings(fs, "out.csv", pairs, false))
	data, err = afero.ReadFile(fs, "out.csv")
	require.NoError(t, err)
	assert.Equal(t, "Provisional Name,Official Name\nP21abcd,2022 AB1\n", string(data), "overwrite mode truncates")

	m, err := LoadMapping(fs, "out.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, Mapping{"P21abcd": "2022 AB1"}, m, "written files load back")
}

func TestWriteMappingsAppendToNewFileWritesHeader(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteMappings(fs, "new.csv", []Pair{{Provisional: "A", Official: "B"}}, true))

	data, err := afero.ReadFile(fs, "new.csv")
	require.NoError(t, err)
	assert.Equal(t, "Provisional Name,Official Name\nA,B\n", string(data))
}
