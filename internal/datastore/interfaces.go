// Package datastore persists asteroids, instruments and observations with GORM.
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
)

// DefaultSlowQueryThreshold is the duration above which queries are logged as slow.
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error

	GetOrCreateAsteroid(ctx context.Context, defaults Asteroid) (Result[Asteroid], error)
	GetOrCreateInstrument(ctx context.Context, name string) (Result[Instrument], error)
	GetOrCreateObservation(ctx context.Context, defaults Observation) (Result[Observation], error)

	GetAsteroid(ctx context.Context, name string) (*Asteroid, error)
	GetObservation(ctx context.Context, id uint) (*Observation, error)
	ListObservations(ctx context.Context, asteroid string) ([]Observation, error)
	SearchAsteroids(ctx context.Context, q CatalogQuery) ([]Asteroid, error)
	TargetClasses(ctx context.Context) ([]string, error)
}

// DataStore implements Interface on top of a GORM database handle.
type DataStore struct {
	DB      *gorm.DB
	Logger  logger.Logger
	Metrics metrics.Recorder
}

// New returns the store selected by settings.Database.Type. The store is not
// opened; call Open before use.
func New(settings *conf.Settings, recorder metrics.Recorder) Interface {
	log := logger.Global().Module("datastore")
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	base := DataStore{Logger: log, Metrics: recorder}

	switch settings.Database.Type {
	case conf.DatabaseMySQL:
		return &MySQLStore{DataStore: base, DSN: settings.MySQLDSN(), Debug: settings.Debug}
	default:
		return &SQLiteStore{DataStore: base, Path: settings.Database.SQLite.Path, Debug: settings.Debug}
	}
}

// gormConfig routes GORM logging through the module logger.
func (ds *DataStore) gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(ds.log(), DefaultSlowQueryThreshold),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func (ds *DataStore) log() logger.Logger {
	if ds.Logger == nil {
		ds.Logger = logger.Global().Module("datastore")
	}
	return ds.Logger
}

func (ds *DataStore) recorder() metrics.Recorder {
	if ds.Metrics == nil {
		ds.Metrics = metrics.NopRecorder{}
	}
	return ds.Metrics
}

// performAutoMigration creates or updates the catalog tables.
func performAutoMigration(db *gorm.DB, log logger.Logger, dbType string) error {
	start := time.Now()
	if err := db.AutoMigrate(&Asteroid{}, &Instrument{}, &Observation{}); err != nil {
		return dbError(err, "auto_migrate", errors.PriorityHigh, "db_type", dbType)
	}
	log.Debug("database migration complete",
		logger.String("db_type", dbType),
		logger.Duration("duration", time.Since(start)))
	return nil
}

// Close releases the underlying connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return dbError(errNotInitialized, "close", "")
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close", "")
	}
	return sqlDB.Close()
}
