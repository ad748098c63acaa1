package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.IsReported())
}

func TestBuilderKeepsExplicitMetadata(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("bad header in %s", "a.fits").
		Component("fits").
		Category(CategoryFileParsing).
		Priority("nonsense").
		Context("operation", "read_header").
		FileContext("/data/in/a.fits").
		Build()

	assert.Equal(t, "fits", ee.GetComponent())
	assert.Equal(t, CategoryFileParsing, ee.Category)
	assert.Equal(t, PriorityMedium, ee.Priority)

	ctx := ee.GetContext()
	assert.Equal(t, "read_header", ctx["operation"])
	assert.Equal(t, "a.fits", ctx["file_name"])
	assert.Equal(t, "fits", ctx["file_extension"])

	// The returned map is a copy
	ctx["operation"] = "changed"
	assert.Equal(t, "read_header", ee.GetContext()["operation"])
}

func TestCategoryInheritedFromWrappedError(t *testing.T) {
	SetTelemetryReporter(nil)

	inner := New(NewStd("gone")).Category(CategoryNotFound).Build()
	outer := New(fmt.Errorf("export failed: %w", inner)).Build()

	assert.Equal(t, CategoryNotFound, outer.Category)
	assert.True(t, IsNotFound(outer))
}

func TestIsAndSentinels(t *testing.T) {
	sentinel := NewStd("sentinel")
	ee := New(fmt.Errorf("wrapped: %w", sentinel)).Category(CategoryValidation).Build()

	assert.ErrorIs(t, ee, sentinel)
	assert.True(t, IsCategory(ee, CategoryValidation))
	assert.False(t, IsCategory(sentinel, CategoryValidation))
	assert.True(t, Is(ee, &EnhancedError{Category: CategoryValidation}))
}

func TestTelemetryReporterReceivesErrors(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("connection refused")).Component("sbdb").Build()

	require.Len(t, reporter.reported, 1)
	assert.Same(t, ee, reporter.reported[0])
	assert.True(t, ee.IsReported())
	assert.Equal(t, CategoryNetwork, ee.Category)
}

func TestDetectCategoryByComponent(t *testing.T) {
	assert.Equal(t, CategoryFileParsing, detectCategory(NewStd("bad block"), "fits"))
	assert.Equal(t, CategoryLookup, detectCategory(NewStd("status 500"), "sbdb"))
	assert.Equal(t, CategoryTimeout, detectCategory(NewStd("context deadline exceeded"), "sbdb"))
	assert.Equal(t, CategoryGeneric, detectCategory(NewStd("whatever"), "other"))
}

func TestScrubMessage(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		contains string
		absent   string
	}{
		{"query string", "GET https://ssd-api.jpl.nasa.gov/sbdb.api?sstr=2023%20AB failed", "sbdb.api?[REDACTED]", "sstr="},
		{"password", "mysql password=hunter2 rejected", "password=[REDACTED]", "hunter2"},
		{"dsn", "dial catalog:secret@tcp(db:3306)/catalog", "[REDACTED]@tcp(", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := scrubMessage(tt.in)
			assert.Contains(t, out, tt.contains)
			assert.NotContains(t, out, tt.absent)
		})
	}
}
