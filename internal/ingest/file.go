package ingest

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/fits"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
	"github.com/tphakala/asteroid-catalog/internal/sbdb"
)

// IsFITS reports whether name carries a .fits or .fit extension, in any case.
func IsFITS(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".fits", ".fit":
		return true
	}
	return false
}

// ProvisionalName derives the provisional designation from a file name: the
// text before the first underscore, or the name without extension when
// there is none.
func ProvisionalName(name string) string {
	base := filepath.Base(name)
	if before, _, found := strings.Cut(base, "_"); found {
		return before
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *Pipeline) ingestFile(ctx context.Context, runLog logger.Logger, name string) (result FileResult) {
	start := time.Now()
	log := runLog.With(logger.String("file", name))
	result = FileResult{Name: name}

	defer func() {
		p.metrics.RecordOperation(metrics.OpIngestFile, string(result.State))
		p.metrics.RecordDuration(metrics.OpIngestFile, time.Since(start).Seconds())
		if result.Err != nil {
			var ee *errors.EnhancedError
			category := string(errors.CategoryGeneric)
			if errors.As(result.Err, &ee) {
				category = string(ee.Category)
			}
			p.metrics.RecordError(metrics.OpIngestFile, category)
		}
	}()

	if !IsFITS(name) {
		log.Debug("skipping non-FITS file")
		result.State = StateSkippedNotFITS
		return result
	}

	path := filepath.Join(p.cfg.SourceDir, name)
	provisional := ProvisionalName(name)
	result.Asteroid = provisional

	official, confirmed, status := p.resolver.Resolve(provisional)
	class := p.classify(ctx, log, official, confirmed)

	header, err := p.readHeader(path)
	if err != nil {
		log.Error("failed to read FITS header", logger.Error(err))
		return p.fail(result, err)
	}

	rawDate, _ := header.DateObs()
	dateObs := fits.ParseDate(rawDate, p.cfg.Location, log)
	if dateObs == nil {
		result.State = StateSkippedBadDate
		return result
	}

	asteroid := datastore.Asteroid{
		ProvisionalName: provisional,
		Status:          string(status),
		TargetClass:     class.Class,
		IsNEO:           class.NEO,
		DiscoveryDate:   dateObs,
	}
	if confirmed {
		asteroid.OfficialName = &official
	}
	if _, err := p.store.GetOrCreateAsteroid(ctx, asteroid); err != nil {
		log.Error("failed to store asteroid", logger.Error(err))
		return p.fail(result, err)
	}

	instrumentName, _ := header.Instrument()
	instrument, err := p.store.GetOrCreateInstrument(ctx, instrumentName)
	if err != nil {
		log.Error("failed to store instrument", logger.Error(err))
		return p.fail(result, err)
	}

	obs := observationFromHeader(header, provisional, *dateObs, name)
	obs.InstrumentName = &instrument.Entity.Name
	stored, err := p.store.GetOrCreateObservation(ctx, obs)
	if err != nil {
		log.Error("failed to store observation", logger.Error(err))
		return p.fail(result, err)
	}
	result.ObservationID = stored.Entity.ID
	result.Created = stored.Created
	if stored.Created {
		p.metrics.RecordOperation(metrics.OpGetOrCreate, "created")
		log.Info("observation created",
			logger.Uint64("observation_id", uint64(stored.Entity.ID)),
			logger.String("asteroid", provisional),
			logger.String("status", string(status)))
	} else {
		p.metrics.RecordOperation(metrics.OpGetOrCreate, "existing")
		log.Info("observation already catalogued",
			logger.Uint64("observation_id", uint64(stored.Entity.ID)),
			logger.String("asteroid", provisional))
	}

	if err := p.moveToProcessed(path, filepath.Join(p.cfg.ProcessedDir, name)); err != nil {
		log.Error("failed to move file to processed directory", logger.Error(err))
		return p.fail(result, err)
	}

	result.State = StateIngested
	return result
}

func (p *Pipeline) fail(result FileResult, err error) FileResult {
	result.State = StateFailed
	result.Err = err
	return result
}

// classify looks up a confirmed designation; any failure degrades to
// sbdb.Undefined.
func (p *Pipeline) classify(ctx context.Context, log logger.Logger, official string, confirmed bool) sbdb.Classification {
	if !confirmed || p.classifier == nil {
		return sbdb.Undefined
	}
	if p.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.LookupTimeout)
		defer cancel()
	}
	class, err := p.classifier.Lookup(ctx, official)
	if err != nil {
		log.Warn("classification lookup failed, using undefined",
			logger.String("designation", official),
			logger.Error(err))
		return sbdb.Undefined
	}
	return class
}

func (p *Pipeline) readHeader(path string) (*fits.Header, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	defer func() { _ = f.Close() }()
	return fits.ReadHeader(f)
}

// observationFromHeader fills the header-derived columns of an observation.
func observationFromHeader(h *fits.Header, asteroid string, dateObs time.Time, filename string) datastore.Observation {
	obs := datastore.Observation{
		AsteroidName: asteroid,
		DateObs:      dateObs,
		Filename:     filename,
	}
	obs.ExpTime, _ = h.ExpTime()
	obs.Exposure, _ = h.Exposure()
	obs.RA, _ = h.RA()
	obs.Dec, _ = h.Dec()
	obs.RADeg, obs.DecDeg = fits.PositionDegrees(obs.RA, obs.Dec)
	obs.NAxis1, _ = h.NAxis1()
	obs.NAxis2, _ = h.NAxis2()
	if t, ok := h.Temperature(); ok && t != nil {
		rounded := math.Round(*t*1000) / 1000
		obs.Temperature = &rounded
	}
	return obs
}

// moveToProcessed renames src onto dst, replacing any file already there.
// When rename fails, typically across devices, the file is copied and the
// source removed.
func (p *Pipeline) moveToProcessed(src, dst string) error {
	if _, err := p.fs.Stat(dst); err == nil {
		if err := p.fs.Remove(dst); err != nil {
			return moveError(err, src, dst)
		}
	}
	if err := p.fs.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(p.fs, src, dst); err != nil {
		_ = p.fs.Remove(dst)
		return moveError(err, src, dst)
	}
	if err := p.fs.Remove(src); err != nil {
		return moveError(err, src, dst)
	}
	return nil
}

func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func moveError(err error, src, dst string) error {
	return errors.New(err).
		Component("ingest").
		Category(errors.CategoryFileIO).
		FileContext(src).
		Context("destination", dst).
		Build()
}
