package datastore

import (
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements Interface for SQLite.
type SQLiteStore struct {
	DataStore
	Path  string
	Debug bool
}

// NewSQLiteStore returns an unopened SQLite store for path.
func NewSQLiteStore(path string, log logger.Logger) *SQLiteStore {
	return &SQLiteStore{DataStore: DataStore{Logger: log}, Path: path}
}

func validateSQLiteConfig(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.Newf("sqlite path must not be empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Open connects to the SQLite database, creating its directory if needed,
// and migrates the schema.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Path); err != nil {
		return err
	}

	dsn := store.Path
	if store.Path != MemoryPath {
		if dir := filepath.Dir(store.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.New(err).
					Component("datastore").
					Category(errors.CategoryFileIO).
					FileContext(store.Path).
					Build()
			}
		}
	}
	// Cascade and set-null actions need foreign keys enabled per connection.
	dsn += "?_foreign_keys=on&_busy_timeout=5000"
	if store.Path == MemoryPath {
		dsn = "file::memory:?_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), store.gormConfig())
	if err != nil {
		return dbError(err, "open", errors.PriorityHigh, "db_type", "sqlite", "path", store.Path)
	}

	// One connection keeps an in-memory database alive and avoids SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "open", errors.PriorityHigh, "db_type", "sqlite")
	}
	sqlDB.SetMaxOpenConns(1)

	if store.Debug {
		db = db.Debug()
	}
	store.DB = db
	if err := performAutoMigration(db, store.log(), "sqlite"); err != nil {
		return err
	}

	store.log().Info("database opened",
		logger.String("db_type", "sqlite"),
		logger.String("path", store.Path))
	return nil
}
