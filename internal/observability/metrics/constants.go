// Package metrics provides constants used across metric definitions.
package metrics

// Operation labels.
const (
	OpLookup      = "lookup"
	OpIngestFile  = "ingest_file"
	OpIngestRun   = "ingest_run"
	OpGetOrCreate = "get_or_create"
	OpQuery       = "query"
	OpExport      = "export"
	OpDownload    = "download"
)

// Status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusHit     = "hit"
	StatusMiss    = "miss"
)

// Histogram bucket configuration.
const (
	// BucketStart1ms is the starting bucket value of 1 millisecond.
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket value of 10 milliseconds.
	BucketStart10ms = 0.01
	// BucketStart100B is the starting bucket value of 100 bytes.
	BucketStart100B = 100

	BucketFactor2  = 2
	BucketFactor10 = 10

	BucketCount6  = 6
	BucketCount10 = 10
	BucketCount12 = 12
)
