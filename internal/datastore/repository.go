package datastore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
)

// Entity defaults applied at creation.
const (
	DefaultStatus      = "pending"
	DefaultTargetClass = "undefined"
)

// DatetimePrecision is the fractional-second precision of stored timestamps.
// Values are truncated to it before they are written or compared.
const (
	DatetimePrecision = 6
	datetimeUnit      = time.Microsecond
)

// GetOrCreateAsteroid inserts defaults unless an asteroid with the same
// provisional name exists, in which case the stored row is returned
// untouched.
func (ds *DataStore) GetOrCreateAsteroid(ctx context.Context, defaults Asteroid) (res Result[Asteroid], err error) {
	defer ds.observe("get_or_create_asteroid", time.Now(), &err)

	if err := ds.ready(); err != nil {
		return res, err
	}
	candidate := defaults
	candidate.ProvisionalName = strings.TrimSpace(candidate.ProvisionalName)
	if candidate.ProvisionalName == "" {
		return res, validationError("asteroid provisional name must not be empty", "provisional_name", defaults.ProvisionalName)
	}
	candidate.Observations = nil
	if candidate.Status == "" {
		candidate.Status = DefaultStatus
	}
	if candidate.TargetClass == "" {
		candidate.TargetClass = DefaultTargetClass
	}
	if candidate.OfficialName != nil && strings.TrimSpace(*candidate.OfficialName) == "" {
		candidate.OfficialName = nil
	}
	if candidate.DiscoveryDate != nil {
		d := candidate.DiscoveryDate.UTC().Truncate(datetimeUnit)
		candidate.DiscoveryDate = &d
	}

	created, err := ds.insertIfAbsent(ctx, &candidate)
	if err != nil {
		return res, dbError(err, "create_asteroid", "", "provisional_name", candidate.ProvisionalName)
	}
	if created {
		ds.log().Debug("asteroid created",
			logger.String("provisional_name", candidate.ProvisionalName),
			logger.String("status", candidate.Status))
		return Result[Asteroid]{Entity: &candidate, Created: true}, nil
	}

	var existing Asteroid
	err = ds.DB.WithContext(ctx).First(&existing, "provisional_name = ?", candidate.ProvisionalName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The insert was absorbed by another unique key, the official name.
		return res, conflictError("asteroid", candidate.ProvisionalName)
	}
	if err != nil {
		return res, queryError(err, "get_asteroid", "asteroid", candidate.ProvisionalName)
	}
	return Result[Asteroid]{Entity: &existing}, nil
}

// GetOrCreateInstrument returns the instrument called name, creating it on
// first use. "Unknown" and "" map to the default instrument.
func (ds *DataStore) GetOrCreateInstrument(ctx context.Context, name string) (res Result[Instrument], err error) {
	defer ds.observe("get_or_create_instrument", time.Now(), &err)

	if err := ds.ready(); err != nil {
		return res, err
	}
	candidate := normalizeInstrument(strings.TrimSpace(name))

	created, err := ds.insertIfAbsent(ctx, &candidate)
	if err != nil {
		return res, dbError(err, "create_instrument", "", "name", candidate.Name)
	}
	if created {
		ds.log().Debug("instrument created", logger.String("name", candidate.Name))
		return Result[Instrument]{Entity: &candidate, Created: true}, nil
	}

	var existing Instrument
	if err := ds.DB.WithContext(ctx).First(&existing, "name = ?", candidate.Name).Error; err != nil {
		return res, queryError(err, "get_instrument", "instrument", candidate.Name)
	}
	return Result[Instrument]{Entity: &existing}, nil
}

// GetOrCreateObservation stores defaults unless an observation of the same
// asteroid at the same instant exists. Existing rows are never updated.
func (ds *DataStore) GetOrCreateObservation(ctx context.Context, defaults Observation) (res Result[Observation], err error) {
	defer ds.observe("get_or_create_observation", time.Now(), &err)

	if err := ds.ready(); err != nil {
		return res, err
	}
	candidate := defaults
	candidate.ID = 0
	candidate.Instrument = nil
	if candidate.AsteroidName == "" {
		return res, validationError("observation requires an asteroid", "asteroid_name", "")
	}
	if candidate.DateObs.IsZero() {
		return res, validationError("observation requires date_obs", "date_obs", candidate.DateObs)
	}
	candidate.DateObs = candidate.DateObs.UTC().Truncate(datetimeUnit)
	if candidate.InstrumentName != nil && *candidate.InstrumentName == "" {
		candidate.InstrumentName = nil
	}

	created, err := ds.insertIfAbsent(ctx, &candidate)
	if err != nil {
		return res, dbError(err, "create_observation", "",
			"asteroid", candidate.AsteroidName, "date_obs", candidate.DateObs)
	}
	if created {
		return Result[Observation]{Entity: &candidate, Created: true}, nil
	}

	var existing Observation
	err = ds.DB.WithContext(ctx).
		Where("asteroid_name = ? AND date_obs = ?", candidate.AsteroidName, candidate.DateObs).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return res, conflictError("observation", candidate.AsteroidName)
	}
	if err != nil {
		return res, queryError(err, "get_observation", "observation", candidate.AsteroidName)
	}
	return Result[Observation]{Entity: &existing}, nil
}

// insertIfAbsent issues INSERT ... ON CONFLICT DO NOTHING and reports whether
// a row was written.
func (ds *DataStore) insertIfAbsent(ctx context.Context, value any) (bool, error) {
	tx := ds.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(value)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (ds *DataStore) ready() error {
	if ds.DB == nil {
		return dbError(errNotInitialized, "ready", errors.PriorityHigh)
	}
	return nil
}

// observe records the outcome of a store operation.
func (ds *DataStore) observe(operation string, start time.Time, errp *error) {
	rec := ds.recorder()
	rec.RecordDuration(operation, time.Since(start).Seconds())
	if errp != nil && *errp != nil {
		rec.RecordOperation(operation, metrics.StatusError)
		var ee *errors.EnhancedError
		if errors.As(*errp, &ee) {
			rec.RecordError(operation, string(ee.Category))
		} else {
			rec.RecordError(operation, string(errors.CategoryDatabase))
		}
		return
	}
	rec.RecordOperation(operation, metrics.StatusSuccess)
}

// validationError creates a validation error for a rejected argument.
func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", value).
		Build()
}
