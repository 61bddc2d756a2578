// Package testutil opens throwaway SQLite databases carrying the production
// schema for repository and integration tests.
package testutil

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dossierDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/dossier"
	profileDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/profile"
	userDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/user"
)

// NewSQLiteDB returns an isolated in-memory database. The connection pool is
// pinned to a single connection so every query sees the same memory store.
func NewSQLiteDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&userDatamodel.User{},
		&userDatamodel.Permission{},
		&userDatamodel.UserPermission{},
		&profileDatamodel.Module{},
		&profileDatamodel.Profile{},
		&profileDatamodel.ProfileModule{},
		&profileDatamodel.ProfileUser{},
		&dossierDatamodel.BillingClient{},
		&dossierDatamodel.Dossier{},
		&dossierDatamodel.Assignment{},
	); err != nil {
		return nil, err
	}

	// Same constraint the postgres migration creates.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_dossier_assignments_active
		ON dossier_assignments (dossier_id, module_id) WHERE is_active`).Error; err != nil {
		return nil, err
	}

	return db, nil
}

// SQLX wraps the gorm connection pool for the sqlx-backed read models.
func SQLX(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(sqlDB, "sqlite3"), nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
