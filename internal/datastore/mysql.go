package datastore

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// MySQLStore implements Interface for MySQL.
type MySQLStore struct {
	DataStore
	DSN   string
	Debug bool
}

// NewMySQLStore returns an unopened MySQL store for dsn.
func NewMySQLStore(dsn string, log logger.Logger) *MySQLStore {
	return &MySQLStore{DataStore: DataStore{Logger: log}, DSN: dsn}
}

// Open connects to MySQL and migrates the schema.
func (store *MySQLStore) Open() error {
	if store.DSN == "" {
		return errors.Newf("mysql dsn must not be empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	precision := DatetimePrecision
	dialector := mysql.New(mysql.Config{
		DSN:                      store.DSN,
		DefaultDatetimePrecision: &precision,
	})
	db, err := gorm.Open(dialector, store.gormConfig())
	if err != nil {
		store.log().Error("failed to open MySQL database", logger.Error(err))
		return dbError(err, "open", errors.PriorityHigh, "db_type", "mysql")
	}

	if store.Debug {
		db = db.Debug()
	}
	store.DB = db
	if err := performAutoMigration(db, store.log(), "mysql"); err != nil {
		return err
	}

	store.log().Info("database opened", logger.String("db_type", "mysql"))
	return nil
}
