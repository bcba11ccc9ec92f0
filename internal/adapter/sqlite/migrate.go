package sqlite

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"weighttracker/internal/adapter/sqlite/migrations"
)

// ApplyMigrations brings the schema up to date using the embedded migration
// files. Databases created before the salt column existed are upgraded in
// place; their users keep an empty salt.
func (s *Store) ApplyMigrations() error {
	instance, err := s.migrator()
	if err != nil {
		return err
	}
	if err := s.adoptUnversioned(instance); err != nil {
		return fmt.Errorf("adopt unversioned schema: %w", err)
	}
	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (uint, bool, error) {
	instance, err := s.migrator()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := instance.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// adoptUnversioned handles databases created without a migration history.
// SQLite has no ADD COLUMN IF NOT EXISTS, so when users already carries the
// salt column the schema is brought to version 1 (all IF NOT EXISTS) and
// recorded as version 2, skipping the column add.
func (s *Store) adoptUnversioned(m *migrate.Migrate) error {
	_, _, err := m.Version()
	if err == nil {
		return nil
	}
	if !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}

	hasSalt, err := s.hasColumn("users", "salt")
	if err != nil || !hasSalt {
		return err
	}
	if err := m.Migrate(1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return m.Force(2)
}

func (s *Store) hasColumn(table, column string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&n)
	return n > 0, err
}

func (s *Store) migrator() (*migrate.Migrate, error) {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", source, "sqlite", driver)
}
