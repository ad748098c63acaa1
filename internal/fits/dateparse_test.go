package fits

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

func TestParseDateObsLayouts(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2023-01-01T03:04:05.123456", time.Date(2023, 1, 1, 3, 4, 5, 123456000, helsinki)},
		{"2023-01-01T03:04:05.5", time.Date(2023, 1, 1, 3, 4, 5, 500000000, helsinki)},
		{"2023-01-01T03:04:05", time.Date(2023, 1, 1, 3, 4, 5, 0, helsinki)},
		{"2023-01-01", time.Date(2023, 1, 1, 0, 0, 0, 0, helsinki)},
		{"23/01/15", time.Date(2023, 1, 15, 0, 0, 0, 0, helsinki)},
		{"  2023-06-30  ", time.Date(2023, 6, 30, 0, 0, 0, 0, helsinki)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDateObs(tt.input, helsinki)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %s got %s", tt.want, got)
			assert.Equal(t, helsinki, got.Location())
		})
	}
}

func TestParseDateObsFailures(t *testing.T) {
	for _, input := range []string{"", "   ", "garbage", "2023-13-45", "01.01.2023", "2023-01-01 03:04:05"} {
		t.Run(input, func(t *testing.T) {
			got, err := ParseDateObs(input, time.UTC)
			assert.Nil(t, got)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDateParse)
			assert.True(t, errors.IsCategory(err, errors.CategoryDateParse))
		})
	}
}

func TestParseDateObsDefaultsToLocal(t *testing.T) {
	got, err := ParseDateObs("2023-01-01", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Local, got.Location())
}

func TestParseDateLogsFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)

	assert.Nil(t, ParseDate("not a date", time.UTC, log))
	assert.Contains(t, buf.String(), "failed to parse observation date")
	assert.Contains(t, buf.String(), "not a date")

	buf.Reset()
	assert.NotNil(t, ParseDate("2023-01-01", time.UTC, log))
	assert.Empty(t, buf.String())

	assert.NotPanics(t, func() { ParseDate("", time.UTC, nil) })
}
