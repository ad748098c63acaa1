// Package ingest sweeps a directory of FITS frames into the catalog.
package ingest

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/designation"
	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
	"github.com/tphakala/asteroid-catalog/internal/sbdb"
)

// State is the terminal state of one file in a sweep.
type State string

const (
	StateIngested       State = "ingested"
	StateSkippedBadDate State = "skipped-bad-date"
	StateSkippedNotFITS State = "skipped-not-fits"
	StateFailed         State = "failed"
)

// Config locates the directories and mapping file of a sweep.
type Config struct {
	SourceDir     string
	ProcessedDir  string
	MappingFile   string
	Location      *time.Location // zone for DATE-OBS, time.Local when nil
	LookupTimeout time.Duration  // bound on each classification call, none when zero
}

// ConfigFromSettings derives a pipeline configuration from settings.
func ConfigFromSettings(settings *conf.Settings) (Config, error) {
	loc, err := settings.Location()
	if err != nil {
		return Config{}, err
	}
	return Config{
		SourceDir:     settings.Ingest.SourceDir,
		ProcessedDir:  settings.ProcessedDir(),
		MappingFile:   settings.Ingest.MappingFile,
		Location:      loc,
		LookupTimeout: settings.Lookup.Timeout,
	}, nil
}

// Resolver maps provisional designations to official ones.
type Resolver interface {
	Resolve(provisional string) (official string, ok bool, status designation.Status)
}

// sizedResolver is implemented by resolvers that can report how many
// designations they know.
type sizedResolver interface {
	Len() int
}

// Store is the part of the datastore the pipeline writes through.
type Store interface {
	GetOrCreateAsteroid(ctx context.Context, defaults datastore.Asteroid) (datastore.Result[datastore.Asteroid], error)
	GetOrCreateInstrument(ctx context.Context, name string) (datastore.Result[datastore.Instrument], error)
	GetOrCreateObservation(ctx context.Context, defaults datastore.Observation) (datastore.Result[datastore.Observation], error)
}

// FileResult records what happened to one directory entry.
type FileResult struct {
	Name          string
	State         State
	Asteroid      string
	ObservationID uint
	Created       bool // a new observation row was written
	Err           error
}

// Summary counts the outcome of a sweep.
type Summary struct {
	RunID                string
	Mappings             int // designations known to the resolver, -1 when unknown
	Ingested             int
	SkippedBadDate       int
	SkippedNotFITS       int
	Failed               int
	ObservationsCreated  int
	ObservationsExisting int
	Duration             time.Duration
	Files                []FileResult
}

// Total is the number of files that reached a terminal state.
func (s *Summary) Total() int {
	return s.Ingested + s.SkippedBadDate + s.SkippedNotFITS + s.Failed
}

func (s *Summary) add(r FileResult) {
	s.Files = append(s.Files, r)
	switch r.State {
	case StateIngested:
		s.Ingested++
		if r.Created {
			s.ObservationsCreated++
		} else {
			s.ObservationsExisting++
		}
	case StateSkippedBadDate:
		s.SkippedBadDate++
	case StateSkippedNotFITS:
		s.SkippedNotFITS++
	case StateFailed:
		s.Failed++
	}
}

// Pipeline carries everything one ingestion sweep needs.
type Pipeline struct {
	fs         afero.Fs
	log        logger.Logger
	cfg        Config
	resolver   Resolver
	classifier sbdb.Classifier
	store      Store
	metrics    metrics.Recorder
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClassifier enables classification of confirmed designations.
func WithClassifier(c sbdb.Classifier) Option {
	return func(p *Pipeline) { p.classifier = c }
}

// WithMetrics records per-file and per-run metrics.
func WithMetrics(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.metrics = r
		}
	}
}

// WithResolver replaces the resolver built from cfg.MappingFile.
func WithResolver(r Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithLogger replaces the module logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// New returns a pipeline over fs. Without WithResolver the mapping file in
// cfg is loaded lazily on the first file.
func New(fs afero.Fs, cfg Config, store Store, opts ...Option) *Pipeline {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = conf.ResolveProcessedDir(cfg.SourceDir, "")
	}
	p := &Pipeline{
		fs:      fs,
		log:     logger.Global().Module("ingest"),
		cfg:     cfg,
		store:   store,
		metrics: metrics.NopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.resolver == nil {
		p.resolver = designation.NewResolver(fs, cfg.MappingFile, p.log)
	}
	return p
}

// Run sweeps the source directory once. Per-file failures are recorded in
// the summary; only an unusable processed directory or cancellation returns
// an error.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString(), Mappings: -1}
	ctx = logger.WithTraceID(ctx, summary.RunID)
	log := p.log.WithContext(ctx)

	entries, err := afero.ReadDir(p.fs, p.cfg.SourceDir)
	switch {
	case err != nil && os.IsNotExist(err):
		log.Info("source directory does not exist, nothing to ingest",
			logger.String("source_dir", p.cfg.SourceDir))
		return summary, nil
	case err != nil:
		return summary, errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			FileContext(p.cfg.SourceDir).
			Build()
	case len(entries) == 0:
		log.Info("source directory is empty, nothing to ingest",
			logger.String("source_dir", p.cfg.SourceDir))
		return summary, nil
	}

	if err := p.fs.MkdirAll(p.cfg.ProcessedDir, 0o755); err != nil {
		log.Error("failed to create processed directory",
			logger.String("processed_dir", p.cfg.ProcessedDir),
			logger.Error(err))
		return summary, errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			FileContext(p.cfg.ProcessedDir).
			Priority(errors.PriorityHigh).
			Build()
	}

	log.Info("ingestion started",
		logger.String("source_dir", p.cfg.SourceDir),
		logger.Int("entries", len(entries)))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			log.Warn("ingestion cancelled", logger.Int("processed_files", summary.Total()))
			summary.Duration = time.Since(start)
			return summary, errors.New(err).
				Component("ingest").
				Category(errors.CategoryCancellation).
				Build()
		}
		if entry.IsDir() {
			continue
		}
		summary.add(p.ingestFile(ctx, log, entry.Name()))
	}

	summary.Duration = time.Since(start)
	if r, ok := p.resolver.(sizedResolver); ok {
		summary.Mappings = r.Len()
	}
	p.metrics.RecordOperation(metrics.OpIngestRun, metrics.StatusSuccess)
	p.metrics.RecordDuration(metrics.OpIngestRun, summary.Duration.Seconds())

	log.Info("ingestion finished",
		logger.Int("ingested", summary.Ingested),
		logger.Int("observations_created", summary.ObservationsCreated),
		logger.Int("observations_existing", summary.ObservationsExisting),
		logger.Int("skipped_bad_date", summary.SkippedBadDate),
		logger.Int("skipped_not_fits", summary.SkippedNotFITS),
		logger.Int("failed", summary.Failed),
		logger.Int("mappings", summary.Mappings),
		logger.Duration("duration", summary.Duration))
	return summary, nil
}
