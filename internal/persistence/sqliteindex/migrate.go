package sqliteindex

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrateUp runs every pending embedded migration. Grounded on the
// teacher's internal/db.newMigrate/MigrateUp pair.
func (idx *Index) migrateUp() error {
	m, err := idx.newMigrate()
	if err != nil {
		return err
	}
	// The migrate instance is deliberately not closed: its sqlite driver's
	// Close() would close the underlying *sql.DB, which Index owns and
	// manages separately.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqliteindex: migration up failed: %w", err)
	}
	return nil
}

// Version returns the current migration version, or 0 if none applied yet.
func (idx *Index) Version() (version uint, dirty bool, err error) {
	m, err := idx.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (idx *Index) newMigrate() (*migrate.Migrate, error) {
	sub, err := migrationsSubFS()
	if err != nil {
		return nil, err
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("sqliteindex: failed to create iofs source driver: %w", err)
	}
	driver, err := sqlite.WithInstance(idx.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqliteindex: failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("sqliteindex: failed to create migrate instance: %w", err)
	}
	return m, nil
}
