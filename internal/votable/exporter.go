package votable

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/fits"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
	"github.com/tphakala/asteroid-catalog/internal/securefs"
)

// ErrFileMissing marks observations whose FITS file is no longer in the
// processed directory.
var ErrFileMissing = errors.NewStd("observation file missing")

// ObservationSource loads stored observations.
type ObservationSource interface {
	GetObservation(ctx context.Context, id uint) (*datastore.Observation, error)
}

// FileOpener opens files of the processed directory by name.
type FileOpener interface {
	Open(name string) (*os.File, error)
}

// Exporter builds documents from the stored observation and its FITS header.
type Exporter struct {
	store     ObservationSource
	files     FileOpener
	publicURL string
	log       logger.Logger
	metrics   metrics.Recorder
}

// NewExporter returns an exporter linking files under publicURL.
func NewExporter(store ObservationSource, files FileOpener, publicURL string, recorder metrics.Recorder) *Exporter {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Exporter{
		store:     store,
		files:     files,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       logger.Global().Module("votable"),
		metrics:   recorder,
	}
}

// Filename is the attachment name of the export of observation id.
func Filename(id uint) string {
	return fmt.Sprintf("observation_%d.xml", id)
}

// FITSLink returns the download URL of a processed file.
func (e *Exporter) FITSLink(filename string) string {
	return e.publicURL + "/download/fits/" + url.PathEscape(filename)
}

// Export re-reads the header of observation id and renders it. The field
// list never depends on which keywords the header carries.
func (e *Exporter) Export(ctx context.Context, id uint) (doc *Document, err error) {
	start := time.Now()
	defer func() {
		e.metrics.RecordDuration(metrics.OpExport, time.Since(start).Seconds())
		if err != nil {
			e.metrics.RecordOperation(metrics.OpExport, metrics.StatusError)
			var ee *errors.EnhancedError
			if errors.As(err, &ee) {
				e.metrics.RecordError(metrics.OpExport, string(ee.Category))
			}
			return
		}
		e.metrics.RecordOperation(metrics.OpExport, metrics.StatusSuccess)
	}()

	obs, err := e.store.GetObservation(ctx, id)
	if err != nil {
		return nil, err
	}

	header, err := e.readHeader(obs)
	if err != nil {
		e.log.Warn("export failed",
			logger.Uint64("observation_id", uint64(id)),
			logger.String("file", obs.Filename),
			logger.Error(err))
		return nil, err
	}

	return NewDocument(Filename(id), e.row(header, obs.Filename))
}

func (e *Exporter) readHeader(obs *datastore.Observation) (*fits.Header, error) {
	if err := securefs.ValidateFilename(obs.Filename); err != nil {
		return nil, missingFile(obs, err)
	}
	f, err := e.files.Open(obs.Filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missingFile(obs, err)
		}
		return nil, errors.New(err).
			Component("votable").
			Category(errors.CategoryFileIO).
			FileContext(obs.Filename).
			Build()
	}
	defer func() { _ = f.Close() }()
	return fits.ReadHeader(f)
}

// row formats header values with the same defaults ingestion applies. An
// absent temperature is an empty cell.
func (e *Exporter) row(h *fits.Header, filename string) []string {
	date, _ := h.DateObs()
	naxis1, _ := h.NAxis1()
	naxis2, _ := h.NAxis2()
	exptime, _ := h.ExpTime()
	exposure, _ := h.Exposure()
	ra, _ := h.RA()
	dec, _ := h.Dec()

	temperature := ""
	if t, ok := h.Temperature(); ok && t != nil {
		temperature = formatFloat(*t)
	}

	return []string{
		date,
		strconv.Itoa(naxis1),
		strconv.Itoa(naxis2),
		temperature,
		formatFloat(exptime),
		formatFloat(exposure),
		ra,
		dec,
		e.FITSLink(filename),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func missingFile(obs *datastore.Observation, cause error) error {
	return errors.New(fmt.Errorf("%w: %s: %w", ErrFileMissing, obs.Filename, cause)).
		Component("votable").
		Category(errors.CategoryNotFound).
		Context("observation_id", obs.ID).
		FileContext(obs.Filename).
		Build()
}
