// Package data stores the history of patch and content runs.
package data

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the database driver for engine. sqlitePath is used by the
// sqlite engine and postgresURL by postgres.
func Dialector(engine, sqlitePath, postgresURL string) (gorm.Dialector, error) {
	switch strings.ToLower(engine) {
	case "sqlite":
		return sqlite.Open(sqlitePath), nil
	case "postgres":
		return postgres.Open(postgresURL), nil
	}
	return nil, errors.Newf("unsupported database engine: %s", engine)
}

// Initialize opens the database and migrates the schema.
func Initialize(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	// By default only log errors but enable full SQL query prints-to-console with debug mode
	log := logger.Default.LogMode(logger.Error)
	if debug {
		log = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: log})
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to database")
	}

	if err := db.AutoMigrate(&PatchRecord{}); err != nil {
		return nil, errors.Wrap(err, "error auto migrating db")
	}
	return db, nil
}

func Shutdown(db *gorm.DB) error {
	database, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "error while getting current connection")
	}
	if err := database.Close(); err != nil {
		return errors.Wrap(err, "error while closing database connection")
	}
	return nil
}
