package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// Migrator copies catalog tables from a source to a target database.
type Migrator struct {
	cfg      Config
	out      io.Writer
	source   datastore.Interface
	target   datastore.Interface
	sourceDB *gorm.DB
	targetDB *gorm.DB
}

// MigrationStats tracks migration statistics.
type MigrationStats struct {
	StartTime time.Time
	EndTime   time.Time
	Tables    []TableStats
}

// TableStats tracks per-table migration statistics.
type TableStats struct {
	Name      string
	Migrated  int64
	Skipped   int64
	Errors    int64
	Duration  time.Duration
	BatchSize int
}

// Print outputs the migration statistics.
func (s *MigrationStats) Print(w io.Writer) {
	rule := strings.Repeat("-", 70)
	fmt.Fprintln(w, "\n=== Migration Summary ===")
	fmt.Fprintf(w, "Duration: %s\n\n", s.EndTime.Sub(s.StartTime).Round(time.Millisecond))

	fmt.Fprintf(w, "%-25s %10s %10s %10s %12s\n", "Table", "Migrated", "Skipped", "Errors", "Duration")
	fmt.Fprintln(w, rule)

	var totalMigrated, totalSkipped, totalErrors int64
	for _, t := range s.Tables {
		fmt.Fprintf(w, "%-25s %10d %10d %10d %12s\n",
			t.Name, t.Migrated, t.Skipped, t.Errors, t.Duration.Round(time.Millisecond))
		totalMigrated += t.Migrated
		totalSkipped += t.Skipped
		totalErrors += t.Errors
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-25s %10d %10d %10d\n", "TOTAL", totalMigrated, totalSkipped, totalErrors)
}

// NewMigrator opens the SQLite source and the MySQL target. Opening the
// target creates the catalog schema there.
func NewMigrator(cfg *Config, out io.Writer) (*Migrator, error) {
	log := logger.Global().Module("dbexport")

	source := datastore.NewSQLiteStore(cfg.SQLitePath, log)
	if err := source.Open(); err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	target := datastore.NewMySQLStore(cfg.GetMySQLDSN(), log)
	target.Debug = cfg.Verbose
	if err := target.Open(); err != nil {
		_ = source.Close()
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	fmt.Fprintln(out, "Database connections established successfully")
	return newMigrator(cfg, out, source, source.DB, target, target.DB), nil
}

func newMigrator(cfg *Config, out io.Writer, source datastore.Interface, sourceDB *gorm.DB,
	target datastore.Interface, targetDB *gorm.DB) *Migrator {
	return &Migrator{
		cfg:      *cfg,
		out:      out,
		source:   source,
		target:   target,
		sourceDB: sourceDB,
		targetDB: targetDB,
	}
}

// Close closes both database connections.
func (m *Migrator) Close() {
	if m.source != nil {
		_ = m.source.Close()
	}
	if m.target != nil {
		_ = m.target.Close()
	}
}

// catalogTables lists the tables in dependency order.
var catalogTables = []string{"asteroids", "instruments", "observations"}

// Run executes the full migration.
func (m *Migrator) Run(ctx context.Context) (*MigrationStats, error) {
	stats := &MigrationStats{StartTime: time.Now()}

	if m.isMySQL() {
		// Rows are copied with their keys, so ordering between batches does
		// not matter; checks come back on when the session ends.
		if err := m.targetDB.Exec("SET FOREIGN_KEY_CHECKS=0").Error; err != nil {
			return nil, fmt.Errorf("failed to disable foreign key checks: %w", err)
		}
		defer m.targetDB.Exec("SET FOREIGN_KEY_CHECKS=1")
		fmt.Fprintln(m.out, "Foreign key checks disabled")
	}

	if m.cfg.Clean {
		if err := m.cleanTables(); err != nil {
			return nil, fmt.Errorf("failed to clean tables: %w", err)
		}
	}

	migrations := []func(context.Context, int) (*TableStats, error){
		m.migrateAsteroids,
		m.migrateInstruments,
		m.migrateObservations,
	}
	for i, migrate := range migrations {
		tableStats, err := migrate(ctx, m.cfg.BatchSize)
		if err != nil {
			return stats, fmt.Errorf("failed to migrate %s: %w", catalogTables[i], err)
		}
		stats.Tables = append(stats.Tables, *tableStats)
	}

	stats.EndTime = time.Now()
	return stats, nil
}

func (m *Migrator) isMySQL() bool {
	return m.targetDB.Dialector.Name() == "mysql"
}

// cleanTables deletes target rows, children first.
func (m *Migrator) cleanTables() error {
	fmt.Fprintln(m.out, "Cleaning target tables...")
	db := m.targetDB.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&datastore.Observation{}, &datastore.Instrument{}, &datastore.Asteroid{}} {
		if err := db.Delete(model).Error; err != nil {
			return fmt.Errorf("failed to clean %T: %w", model, err)
		}
	}
	fmt.Fprintln(m.out, "Tables cleaned")
	return nil
}

// migrateTable copies one table in batches. Rows whose key already exists in
// the target are counted as skipped.
func migrateTable[T any](ctx context.Context, m *Migrator, tableName string, batchSize int) (*TableStats, error) {
	start := time.Now()
	stats := &TableStats{Name: tableName, BatchSize: batchSize}

	fmt.Fprintf(m.out, "Migrating %s...\n", tableName)

	var sourceCount int64
	if err := m.sourceDB.WithContext(ctx).Model(new(T)).Count(&sourceCount).Error; err != nil {
		return stats, fmt.Errorf("failed to count source records: %w", err)
	}
	if sourceCount == 0 {
		fmt.Fprintf(m.out, "  %s: no records to migrate\n", tableName)
		stats.Duration = time.Since(start)
		return stats, nil
	}

	var processed int64
	batchNum := 0
	err := m.sourceDB.WithContext(ctx).Model(new(T)).FindInBatches(new([]T), batchSize, func(tx *gorm.DB, _ int) error {
		batchNum++
		records := tx.Statement.Dest.(*[]T)

		result := m.targetDB.WithContext(ctx).
			Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(records)
		if result.Error != nil {
			stats.Errors += int64(len(*records))
			fmt.Fprintf(m.out, "  Batch %d error: %v\n", batchNum, result.Error)
			return nil //nolint:nilerr // a failed batch is counted and the copy continues
		}

		stats.Migrated += result.RowsAffected
		stats.Skipped += int64(len(*records)) - result.RowsAffected
		processed += int64(len(*records))

		if m.cfg.Verbose || batchNum%10 == 0 {
			fmt.Fprintf(m.out, "  %s: %d/%d (%.1f%%)\n", tableName, processed, sourceCount,
				float64(processed)/float64(sourceCount)*100)
		}
		return nil
	}).Error
	if err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	fmt.Fprintf(m.out, "  %s: completed (%d migrated, %d skipped, %d errors) in %s\n",
		tableName, stats.Migrated, stats.Skipped, stats.Errors, stats.Duration.Round(time.Millisecond))

	return stats, nil
}

func (m *Migrator) migrateAsteroids(ctx context.Context, batchSize int) (*TableStats, error) {
	return migrateTable[datastore.Asteroid](ctx, m, "asteroids", batchSize)
}

func (m *Migrator) migrateInstruments(ctx context.Context, batchSize int) (*TableStats, error) {
	return migrateTable[datastore.Instrument](ctx, m, "instruments", batchSize)
}

func (m *Migrator) migrateObservations(ctx context.Context, batchSize int) (*TableStats, error) {
	return migrateTable[datastore.Observation](ctx, m, "observations", batchSize)
}
